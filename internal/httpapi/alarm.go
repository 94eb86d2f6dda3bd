package httpapi

import "net/http"

type AlarmHandler struct {
	Alarm AlarmControl
}

func (h *AlarmHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Alarm.AlarmState())
}

// Dismiss silences a sounding alarm. It is safe to call when idle.
func (h *AlarmHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	dismissed := h.Alarm.DismissAlarm()
	writeJSON(w, http.StatusOK, map[string]any{
		"dismissed": dismissed,
		"state":     h.Alarm.AlarmState(),
	})
}
