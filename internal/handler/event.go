package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/auth"
	"github.com/rahat/quickcal/internal/model"
	"github.com/rahat/quickcal/internal/service"
)

// maxImageBytes bounds uploaded images. Tesseract chokes on huge inputs long
// before this, so 10 MiB is generous.
const maxImageBytes = 10 << 20

// EventHandler accepts calendar-creation requests.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// HandleCreateEvent creates a calendar event for the authenticated user.
//
// HTTP: POST /api/create_event
// Auth: required
//
// Two request shapes are accepted:
//   - application/json: {"date": "...", "time": "...", "description": "..."}
//   - multipart/form-data: the same three fields plus an optional "image"
//     part, which (when OCR is enabled) is mined for the fields with the
//     form values as fallback
//
// Response: 200 {"success": true, "eventLink": "..."} or the standard error
// shape.
func (h *EventHandler) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.InvalidToken("authentication required"))
		return
	}

	form, image, err := h.parseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	req := h.events.ResolveFields(r.Context(), image, form)

	result, err := h.events.CreateEvent(r.Context(), identity.Sub, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseRequest reads the event fields (and optional image) from either
// request shape. Field-presence validation happens in the service, not here
// — this only deals with transport.
func (h *EventHandler) parseRequest(r *http.Request) (model.EventRequest, []byte, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return model.EventRequest{}, nil, apperror.ValidationFailed("body", "invalid multipart form")
		}

		form := model.EventRequest{
			Date:        r.FormValue("date"),
			Time:        r.FormValue("time"),
			Description: r.FormValue("description"),
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			// No image part — that's fine, the form fields carry the event.
			return form, nil, nil
		}
		defer file.Close()

		image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			h.logger.Warn("create_event: reading image upload failed", slog.String("error", err.Error()))
			return model.EventRequest{}, nil, apperror.ValidationFailed("image", "could not read uploaded image")
		}
		return form, image, nil
	}

	var form model.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		return model.EventRequest{}, nil, apperror.ValidationFailed("body", "invalid JSON body")
	}
	return form, nil, nil
}
