package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/rahat/quickcal/internal/apperror"
	"github.com/rahat/quickcal/internal/model"
)

// fakeInserter implements calendar.Inserter and records the call.
type fakeInserter struct {
	calls       int
	gotToken    *oauth2.Token
	gotReq      model.EventRequest
	returnLink  string
	refreshedTo *oauth2.Token // non-nil to simulate a mid-call token refresh
	err         error
}

func (f *fakeInserter) InsertEvent(ctx context.Context, stored *oauth2.Token, req model.EventRequest) (string, *oauth2.Token, error) {
	f.calls++
	f.gotToken = stored
	f.gotReq = req
	if f.err != nil {
		return "", nil, f.err
	}
	return f.returnLink, f.refreshedTo, nil
}

// fakeExtractor implements ocr.TextExtractor.
type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f.text, f.err
}

func seedCredential(t *testing.T, repo *fakeCredRepo, sub string, token oauth2.Token) {
	t.Helper()
	blob, err := json.Marshal(token)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), &model.Credential{
		Sub:       sub,
		TokenJSON: string(blob),
	}))
	repo.saves = 0 // seeding doesn't count
}

func TestCreateEvent_Success(t *testing.T) {
	repo := newFakeCredRepo()
	seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1"})
	cal := &fakeInserter{returnLink: "https://calendar.google.com/event?eid=abc"}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	res, err := svc.CreateEvent(context.Background(), "google-sub-1", model.EventRequest{
		Date:        "2024-05-01",
		Time:        "09:30",
		Description: "Dentist",
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "https://calendar.google.com/event?eid=abc", res.EventLink)
	assert.Equal(t, "at-1", cal.gotToken.AccessToken)
	assert.Equal(t, "Dentist", cal.gotReq.Description)
}

func TestCreateEvent_TrimsWhitespace(t *testing.T) {
	repo := newFakeCredRepo()
	seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-1"})
	cal := &fakeInserter{returnLink: "https://example.com/ev"}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	_, err := svc.CreateEvent(context.Background(), "google-sub-1", model.EventRequest{
		Date:        "  2024-05-01 ",
		Time:        " 09:30",
		Description: " Dentist \n",
	})

	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", cal.gotReq.Date)
	assert.Equal(t, "09:30", cal.gotReq.Time)
	assert.Equal(t, "Dentist", cal.gotReq.Description)
}

// Any empty-after-trim field must fail validation BEFORE any external call.
func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  model.EventRequest
	}{
		{name: "empty date", req: model.EventRequest{Time: "09:30", Description: "x"}},
		{name: "empty time", req: model.EventRequest{Date: "2024-05-01", Description: "x"}},
		{name: "empty description", req: model.EventRequest{Date: "2024-05-01", Time: "09:30"}},
		{name: "whitespace-only fields", req: model.EventRequest{Date: "  ", Time: "\t", Description: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeCredRepo()
			seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-1"})
			cal := &fakeInserter{}
			svc := NewEventService(repo, cal, nil, false, testLogger())

			_, err := svc.CreateEvent(context.Background(), "google-sub-1", tt.req)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, cal.calls, "no external call may happen on validation failure")
		})
	}
}

// A user with no stored credential fails before any external call.
func TestCreateEvent_NotLinked(t *testing.T) {
	repo := newFakeCredRepo()
	cal := &fakeInserter{}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	_, err := svc.CreateEvent(context.Background(), "stranger", model.EventRequest{
		Date: "2024-05-01", Time: "09:30", Description: "Dentist",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrNotLinked)
	assert.Zero(t, cal.calls)
}

func TestCreateEvent_ProviderFailure(t *testing.T) {
	repo := newFakeCredRepo()
	seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-1"})
	cal := &fakeInserter{err: apperror.Provider("calendar insert")}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	_, err := svc.CreateEvent(context.Background(), "google-sub-1", model.EventRequest{
		Date: "2024-05-01", Time: "09:30", Description: "Dentist",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrProvider)
	assert.Equal(t, 1, cal.calls, "exactly one attempt, no retries")
}

// A token refreshed during the call is re-persisted, keeping the original
// refresh token (Google omits it from refresh responses).
func TestCreateEvent_RefreshedTokenRePersisted(t *testing.T) {
	repo := newFakeCredRepo()
	seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-old", RefreshToken: "rt-keep"})
	cal := &fakeInserter{
		returnLink:  "https://example.com/ev",
		refreshedTo: &oauth2.Token{AccessToken: "at-new"},
	}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	_, err := svc.CreateEvent(context.Background(), "google-sub-1", model.EventRequest{
		Date: "2024-05-01", Time: "09:30", Description: "Dentist",
	})
	require.NoError(t, err)
	require.Equal(t, 1, repo.saves, "refreshed token should be saved once")

	var stored oauth2.Token
	require.NoError(t, json.Unmarshal([]byte(repo.creds["google-sub-1"].TokenJSON), &stored))
	assert.Equal(t, "at-new", stored.AccessToken)
	assert.Equal(t, "rt-keep", stored.RefreshToken)
}

// Re-persistence failure is swallowed: the event was created, so the call
// still succeeds.
func TestCreateEvent_RefreshPersistFailureSwallowed(t *testing.T) {
	repo := newFakeCredRepo()
	seedCredential(t, repo, "google-sub-1", oauth2.Token{AccessToken: "at-old"})
	cal := &fakeInserter{
		returnLink:  "https://example.com/ev",
		refreshedTo: &oauth2.Token{AccessToken: "at-new"},
	}
	svc := NewEventService(repo, cal, nil, false, testLogger())

	repo.saveErr = errors.New("disk full")
	res, err := svc.CreateEvent(context.Background(), "google-sub-1", model.EventRequest{
		Date: "2024-05-01", Time: "09:30", Description: "Dentist",
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
}

// =========================================================================
// FIELD RESOLUTION (OCR PATH)
// =========================================================================

func TestResolveFields(t *testing.T) {
	form := model.EventRequest{Date: "2024-01-01", Time: "12:00", Description: "manual"}
	image := []byte{0x89, 'P', 'N', 'G'}

	t.Run("ocr disabled ignores image", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "Date 2024-05-01 09:30"}, false, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, form, got)
	})

	t.Run("no image uses form fields", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "Date 2024-05-01 09:30"}, true, testLogger())

		got := svc.ResolveFields(context.Background(), nil, form)
		assert.Equal(t, form, got)
	})

	t.Run("extracted fields win, description falls back to form", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "Due 2024-05-01 at 09:30"}, true, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, "2024-05-01", got.Date)
		assert.Equal(t, "09:30", got.Time)
		assert.Equal(t, "manual", got.Description)
	})

	t.Run("labelled description wins over form", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "Date: 2024-05-01, Description: Dentist\n09:30"}, true, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, "Dentist", got.Description)
	})

	t.Run("date-only slip takes time from form", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "Date: 2024-05-01, Description: Dentist"}, true, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, "2024-05-01", got.Date)
		assert.Equal(t, "12:00", got.Time)
		assert.Equal(t, "Dentist", got.Description)
	})

	t.Run("no date falls back to form", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{text: "no dates here"}, true, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, form, got)
	})

	t.Run("extractor failure falls back to form", func(t *testing.T) {
		svc := NewEventService(newFakeCredRepo(), &fakeInserter{},
			&fakeExtractor{err: errors.New("tesseract not installed")}, true, testLogger())

		got := svc.ResolveFields(context.Background(), image, form)
		assert.Equal(t, form, got)
	})
}
