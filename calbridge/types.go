// Package calbridge is an HTTP client for the local authorized calendar
// backend: a small sidecar that exposes calendars and events over a pinned
// REST contract (spec.md §6). calscribe never talks to a real calendar
// provider directly; everything routes through this bridge.
package calbridge

// Status is the response of GET /status.
type Status struct {
	Authorized bool `json:"authorized"`
	StatusCode int  `json:"status_code"`
	Version    string `json:"version,omitempty"`
}

// Calendar is one entry of GET /calendars.
type Calendar struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	AllowsModifications bool   `json:"allows_modifications"`
	ColorHex            string `json:"color_hex"`
}

// Event is one entry of GET /events and the response shape of POST /add.
type Event struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	StartISO       string `json:"start_iso"`
	EndISO         string `json:"end_iso"`
	CalendarID     string `json:"calendar_id,omitempty"`
	CalendarTitle  string `json:"calendar_title,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// AddEventRequest is the body of POST /add. Exactly one of CalendarID or
// CalendarTitle should be set; the backend resolves whichever is present.
type AddEventRequest struct {
	Title         string `json:"title"`
	StartISO      string `json:"start_iso"`
	EndISO        string `json:"end_iso"`
	Notes         string `json:"notes,omitempty"`
	CalendarID    string `json:"calendar_id,omitempty"`
	CalendarTitle string `json:"calendar_title,omitempty"`
}

// DeleteEventResponse is the response of POST /delete.
type DeleteEventResponse struct {
	Deleted bool `json:"deleted"`
}

// EventsQuery parameterizes GET /events.
type EventsQuery struct {
	Days             int
	CalendarID       string
	ExcludeHolidays  bool
}
