package model

// EventRequest is the client's calendar-creation payload. The three fields
// arrive either as JSON, as multipart form values, or (when OCR is enabled)
// extracted from an uploaded image with the form values as fallback.
type EventRequest struct {
	Date        string `json:"date"`        // YYYY-MM-DD
	Time        string `json:"time"`        // HH:MM (24h)
	Description string `json:"description"` // event summary
}

// EventResult is returned after a successful calendar insert.
type EventResult struct {
	Success   bool   `json:"success"`
	EventLink string `json:"eventLink"` // provider-assigned shareable link
}
