package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotLinked wraps ErrNotLinked",
			err:       NotLinked("user-sub-1"),
			target:    ErrNotLinked,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("date", "date is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "InvalidToken wraps ErrInvalidToken",
			err:       InvalidToken("token expired"),
			target:    ErrInvalidToken,
			wantMatch: true,
		},
		{
			name:      "Provider wraps ErrProvider",
			err:       Provider("calendar insert"),
			target:    ErrProvider,
			wantMatch: true,
		},
		{
			name:      "ExtractionIncomplete wraps ErrExtraction",
			err:       ExtractionIncomplete("no date found"),
			target:    ErrExtraction,
			wantMatch: true,
		},
		{
			name:      "NotLinked does NOT match ErrValidation",
			err:       NotLinked("user-sub-1"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "AuthExchange does NOT match ErrConfiguration",
			err:       AuthExchange("code exchange rejected"),
			target:    ErrConfiguration,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Matching must survive additional fmt.Errorf wrapping, because services add
// context before returning errors up the stack.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := ValidationFailed("time", "time is required")
	wrapped := fmt.Errorf("creating event: %w", inner)

	if !errors.Is(wrapped, ErrValidation) {
		t.Error("errors.Is should match ErrValidation through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through wrapping")
	}
	if appErr.Field != "time" {
		t.Errorf("AppError.Field = %q, want %q", appErr.Field, "time")
	}
}
