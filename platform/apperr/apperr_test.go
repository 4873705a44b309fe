package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{Unavailable("x"), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.status {
			t.Fatalf("kind %s: expected %d, got %d", tc.err.Kind, tc.status, got)
		}
	}
}

func TestGetKindFindsWrappedError(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("list dnc: %w", Wrap(KindUnavailable, "store unavailable", base))

	if !Is(err, KindUnavailable) {
		t.Fatalf("expected wrapped kind to be detected")
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected underlying error to stay reachable")
	}
}
