package viewtree

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	e := &Error{Code: ErrCodeType, Message: "bad value"}
	if got := e.Error(); got != "viewtree: TYPE: bad value" {
		t.Errorf("Error() = %q", got)
	}
	e.Location = ":[R]#1"
	e.Cause = errors.New("boom")
	if got := e.Error(); got != "viewtree: TYPE (:[R]#1): bad value: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorMatching(t *testing.T) {
	cause := errors.New("disk")
	err := fmt.Errorf("loading: %w", wrapError(ErrCodeResource, cause, "load %q", "a.png"))

	if !IsCode(err, ErrCodeResource) || IsCode(err, ErrCodeType) {
		t.Error("IsCode mismatch")
	}
	if ErrorCode(err) != ErrCodeResource {
		t.Errorf("ErrorCode = %q", ErrorCode(err))
	}
	if ErrorCode(cause) != "" {
		t.Error("plain errors have no code")
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if !errors.Is(err, &Error{Code: ErrCodeResource}) {
		t.Error("code-only target should match")
	}
	if errors.Is(err, &Error{Code: ErrCodeResource, Message: "other"}) {
		t.Error("message mismatch should not match")
	}
}

func TestViewErrorLocation(t *testing.T) {
	s := newTestStage()
	v := newChild(t, s.Root(), "Menu")
	e := viewError(v, ErrCodeNotFound, "missing %s", "x")
	if !strings.HasSuffix(e.Location, ":[0]Menu") || e.Message != "missing x" {
		t.Errorf("error = %+v", e)
	}
	if viewError(nil, ErrCodeNotFound, "x").Location != "" {
		t.Error("nil view should leave the location empty")
	}
}
