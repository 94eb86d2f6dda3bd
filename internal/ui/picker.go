package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user backs out of a picker.
var ErrCancelled = errors.New("cancelled")

// PickerOption is a single row; Value is returned when it is chosen.
type PickerOption struct {
	Value string
	Label string
}

// Picker is an arrow-key navigable menu. On a non-terminal input it falls
// back to reading numbers from a line ("2" or "1,3").
type Picker struct {
	question    string
	options     []PickerOption
	selected    int
	multiSelect bool
	selections  map[int]bool
	colored     bool

	in  io.Reader
	out io.Writer

	cursorStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	optionStyle   lipgloss.Style
	questionStyle lipgloss.Style
	hintStyle     lipgloss.Style
}

func NewPicker(question string, options []PickerOption, multiSelect, colored bool) *Picker {
	return &Picker{
		question:    question,
		options:     options,
		multiSelect: multiSelect,
		selections:  make(map[int]bool),
		colored:     colored,
		in:          os.Stdin,
		out:         os.Stdout,

		cursorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true),
		selectedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true),
		optionStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		questionStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true),
		hintStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
	}
}

// SetIO replaces stdin and stdout.
func (p *Picker) SetIO(in io.Reader, out io.Writer) {
	p.in = in
	p.out = out
}

// Run shows the menu and returns the chosen values.
func (p *Picker) Run() ([]string, error) {
	if len(p.options) == 0 {
		return nil, nil
	}

	f, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return p.runSimple()
	}

	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return p.runSimple()
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(p.out, "\033[?25h")
	}()

	fmt.Fprint(p.out, "\033[?25l")
	return p.runKeys(bufio.NewReader(p.in))
}

func (p *Picker) runKeys(reader *bufio.Reader) ([]string, error) {
	totalLines := len(p.options) + 3
	p.printMenu()

	for {
		b, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}

		done := false

		switch b {
		case 13, 10: // Enter
			done = true
		case 3, 'q': // Ctrl+C
			p.clearMenu(totalLines)
			return nil, ErrCancelled
		case 'j':
			p.moveDown()
		case 'k':
			p.moveUp()
		case ' ':
			if p.multiSelect {
				p.toggleSelection()
			} else {
				done = true
			}
		case 27: // Escape sequence
			b2, _ := reader.ReadByte()
			if b2 == '[' {
				b3, _ := reader.ReadByte()
				switch b3 {
				case 'A':
					p.moveUp()
				case 'B':
					p.moveDown()
				}
			}
		default:
			if b >= '1' && b <= '9' {
				idx := int(b - '1')
				if idx < len(p.options) {
					p.selected = idx
					if p.multiSelect {
						p.toggleSelection()
					} else {
						done = true
					}
				}
			}
		}

		p.clearMenu(totalLines)
		if done {
			return p.getSelected(), nil
		}
		p.printMenu()
	}
}

func (p *Picker) printMenu() {
	var sb strings.Builder

	sb.WriteString(p.style(p.questionStyle, p.question))
	sb.WriteString("\r\n")

	hint := "[j/k or arrows] move  [enter] select  [q] cancel"
	if p.multiSelect {
		hint = "[j/k or arrows] move  [space] toggle  [enter] confirm  [q] cancel"
	}
	sb.WriteString(p.style(p.hintStyle, hint))
	sb.WriteString("\r\n\r\n")

	for i, opt := range p.options {
		cursor := "  "
		if i == p.selected {
			cursor = "> "
		}

		checkbox := ""
		if p.multiSelect {
			checkbox = "[ ] "
			if p.selections[i] {
				checkbox = "[x] "
			}
		}

		if i == p.selected {
			sb.WriteString(p.style(p.cursorStyle, cursor) + checkbox + p.style(p.selectedStyle, opt.Label))
		} else {
			sb.WriteString(cursor + checkbox + p.style(p.optionStyle, opt.Label))
		}
		sb.WriteString("\r\n")
	}

	fmt.Fprint(p.out, sb.String())
}

func (p *Picker) style(s lipgloss.Style, text string) string {
	if !p.colored {
		return text
	}
	return s.Render(text)
}

func (p *Picker) clearMenu(lines int) {
	for i := 0; i < lines; i++ {
		fmt.Fprint(p.out, "\033[A\033[2K\r")
	}
}

func (p *Picker) runSimple() ([]string, error) {
	fmt.Fprintln(p.out, p.question)
	for i, opt := range p.options {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, opt.Label)
	}
	if p.multiSelect {
		fmt.Fprint(p.out, "Enter numbers (e.g. 1,3): ")
	} else {
		fmt.Fprint(p.out, "Enter number: ")
	}

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		return nil, err
	}

	var values []string
	for _, field := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' || r == '\r' }) {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 || n > len(p.options) {
			continue
		}
		values = append(values, p.options[n-1].Value)
		if !p.multiSelect {
			break
		}
	}

	if len(values) == 0 {
		return nil, ErrCancelled
	}
	return values, nil
}

func (p *Picker) moveUp() {
	if p.selected > 0 {
		p.selected--
	} else {
		p.selected = len(p.options) - 1
	}
}

func (p *Picker) moveDown() {
	if p.selected < len(p.options)-1 {
		p.selected++
	} else {
		p.selected = 0
	}
}

func (p *Picker) toggleSelection() {
	p.selections[p.selected] = !p.selections[p.selected]
}

func (p *Picker) getSelected() []string {
	if p.multiSelect {
		var result []string
		for i, opt := range p.options {
			if p.selections[i] {
				result = append(result, opt.Value)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return []string{p.options[p.selected].Value}
}
