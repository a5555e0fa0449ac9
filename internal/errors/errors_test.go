package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"
)

func TestError(t *testing.T) {
	t.Run("Is matches by code", func(t *testing.T) {
		err := NotFound("posts")
		if !stderrors.Is(err, RowNotFound) {
			t.Error("expected NotFound to match RowNotFound")
		}
		if stderrors.Is(err, NotAuthenticated) {
			t.Error("NotFound should not match NotAuthenticated")
		}
	})

	t.Run("Is through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading: %w", Unauthorized())
		if !stderrors.Is(err, NotAuthenticated) {
			t.Error("expected wrapped Unauthorized to match NotAuthenticated")
		}
		if got := CodeOf(err); got != ErrUnauthorized {
			t.Errorf("CodeOf = %q, want %q", got, ErrUnauthorized)
		}
	})

	t.Run("Wrap keeps cause", func(t *testing.T) {
		err := Storage("failed to read", io.ErrUnexpectedEOF)
		if !stderrors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("expected cause to be reachable")
		}
		if got := err.Error(); got != "failed to read: unexpected EOF" {
			t.Errorf("Error() = %q", got)
		}
		if got := err.Message(); got != "failed to read" {
			t.Errorf("Message() = %q", got)
		}
	})

	t.Run("details", func(t *testing.T) {
		err := UnknownFunction("nope")
		if err.Details()["function"] != "nope" {
			t.Errorf("unexpected details: %v", err.Details())
		}
		if err.Code() != ErrFunctionNotFound {
			t.Errorf("Code() = %q", err.Code())
		}
	})

	t.Run("CodeOf plain error", func(t *testing.T) {
		if got := CodeOf(io.EOF); got != "" {
			t.Errorf("CodeOf = %q, want empty", got)
		}
	})
}
