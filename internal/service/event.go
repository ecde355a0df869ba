package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/calendar"
	"github.com/rahat/quickcal/internal/model"
	"github.com/rahat/quickcal/internal/ocr"
	"github.com/rahat/quickcal/internal/repository"
)

// EventService creates calendar events on behalf of authenticated users.
type EventService struct {
	creds      repository.CredentialRepository
	cal        calendar.Inserter
	extractor  ocr.TextExtractor // nil when OCR is disabled
	ocrEnabled bool
	logger     *slog.Logger
}

func NewEventService(
	creds repository.CredentialRepository,
	cal calendar.Inserter,
	extractor ocr.TextExtractor,
	ocrEnabled bool,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		creds:      creds,
		cal:        cal,
		extractor:  extractor,
		ocrEnabled: ocrEnabled,
		logger:     logger,
	}
}

// ResolveFields decides the final event fields for a request that may carry
// an image.
//
// When OCR is enabled and an image is present, the extracted fields win and
// the form fields fill any gap: a slip carrying only a date keeps its date
// and takes time and description from the form. When extraction finds no
// date at all, we fall back to the form fields entirely rather than failing
// the request — the client may have supplied both. When OCR is disabled,
// the image is ignored.
func (s *EventService) ResolveFields(ctx context.Context, image []byte, form model.EventRequest) model.EventRequest {
	if !s.ocrEnabled || s.extractor == nil || len(image) == 0 {
		return form
	}

	text, err := s.extractor.ExtractText(ctx, image)
	if err != nil {
		s.logger.Warn("ocr: text extraction failed, using form fields",
			slog.String("error", err.Error()))
		return form
	}

	fields, err := ocr.ExtractFields(text)
	if err != nil {
		s.logger.Info("ocr: no date found, using form fields",
			slog.String("error", err.Error()))
		return form
	}

	resolved := model.EventRequest{
		Date:        fields.Date,
		Time:        fields.Time,
		Description: fields.Description,
	}
	if resolved.Time == "" {
		resolved.Time = form.Time
	}
	if resolved.Description == "" {
		resolved.Description = form.Description
	}
	return resolved
}

// CreateEvent validates the request, loads the user's stored Google
// credential, and submits the calendar insert.
//
// Ordering matters and is load-bearing for the error contract:
//  1. validation failures must happen before any storage or provider call
//  2. a missing credential must be detected before calling Google
//  3. only then is the external insert attempted (never retried)
func (s *EventService) CreateEvent(ctx context.Context, sub string, req model.EventRequest) (*model.EventResult, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.Description = strings.TrimSpace(req.Description)

	switch {
	case req.Date == "":
		return nil, apperror.ValidationFailed("date", "date is required")
	case req.Time == "":
		return nil, apperror.ValidationFailed("time", "time is required")
	case req.Description == "":
		return nil, apperror.ValidationFailed("description", "description is required")
	}

	cred, err := s.creds.Get(ctx, sub)
	if err != nil {
		if errors.Is(err, apperror.ErrNotLinked) {
			return nil, err
		}
		return nil, fmt.Errorf("service/event: loading credential for sub %s: %w", sub, err)
	}

	// Strict structured parse of the stored blob — it was written by
	// json.Marshal(oauth2.Token) in CompleteSignIn and nothing else.
	var token oauth2.Token
	if err := json.Unmarshal([]byte(cred.TokenJSON), &token); err != nil {
		return nil, fmt.Errorf("service/event: corrupt credential blob for sub %s: %w", sub, err)
	}

	link, refreshed, err := s.cal.InsertEvent(ctx, &token, req)
	if err != nil {
		s.logger.Error("calendar insert failed",
			slog.String("sub", sub),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, apperror.ErrProvider) {
			return nil, apperror.Provider("calendar insert")
		}
		return nil, fmt.Errorf("service/event: inserting event: %w", err)
	}

	// Opportunistic re-persist of a refreshed token. Failure is swallowed:
	// the event was created, and the next request will just refresh again.
	if refreshed != nil {
		if err := s.persistRefreshed(ctx, cred, &token, refreshed); err != nil {
			s.logger.Warn("failed to re-persist refreshed credential",
				slog.String("sub", sub),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("calendar event created",
		slog.String("sub", sub),
		slog.String("date", req.Date),
		slog.String("time", req.Time),
	)

	return &model.EventResult{Success: true, EventLink: link}, nil
}

func (s *EventService) persistRefreshed(ctx context.Context, cred *model.Credential, old, refreshed *oauth2.Token) error {
	// Google omits the refresh token from refresh responses; carry the
	// original one forward or the blob loses its offline access.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = old.RefreshToken
	}
	blob, err := json.Marshal(refreshed)
	if err != nil {
		return fmt.Errorf("serializing refreshed token: %w", err)
	}
	cred.TokenJSON = string(blob)
	return s.creds.Save(ctx, cred)
}
