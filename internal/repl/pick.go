package repl

import (
	"github.com/notexe/rimix/internal/ui"
)

// pick runs a picker. Readline owns the terminal, so it is closed for the
// duration and recreated afterwards.
func (r *REPL) pick(question string, options []ui.PickerOption, multi bool) ([]string, error) {
	r.rlMu.Lock()
	rl := r.rl
	r.rl = nil
	r.rlMu.Unlock()

	picker := ui.NewPicker(question, options, multi, r.colored)
	if rl == nil {
		picker.SetIO(r.in, r.out)
		return picker.Run()
	}

	rl.Close()
	defer r.restoreReadline()

	return picker.Run()
}

func (r *REPL) restoreReadline() {
	rl, err := setupReadline(r.formatter.FormatPrompt())
	if err != nil {
		r.displayError(err)
		return
	}

	r.rlMu.Lock()
	r.rl = rl
	r.rlMu.Unlock()
}
