package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_MatchesKindAndUmbrella(t *testing.T) {
	err := New(ErrUnknownRecord, "no record with id %d", 100)
	if !errors.Is(err, ErrUnknownRecord) {
		t.Error("expected ErrUnknownRecord")
	}
	if !errors.Is(err, ErrRecord) {
		t.Error("expected umbrella ErrRecord")
	}
	if errors.Is(err, ErrDuplicateRecord) {
		t.Error("should not match another kind")
	}
	if err.Error() != "no record with id 100" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestKinds_WrappedStillMatch(t *testing.T) {
	err := fmt.Errorf("engine: new: %w", New(ErrMissingTitle, "title is required"))
	if !errors.Is(err, ErrMissingTitle) || !errors.Is(err, ErrRecord) {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
}
