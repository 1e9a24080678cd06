package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	if got := Validation("phone", "must be 10 digits").Error(); got != "phone: must be 10 digits" {
		t.Errorf("validation message: %q", got)
	}
	if got := NotFound("patient").Error(); got != "patient not found" {
		t.Errorf("not found message: %q", got)
	}
	if got := Business("insufficient stock").Error(); got != "insufficient stock" {
		t.Errorf("business message: %q", got)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{Validation("f", "m"), KindValidation},
		{NotFound("x"), KindNotFound},
		{Business("m"), KindBusiness},
		{Conflict("m"), KindConflict},
		{Wrap(errors.New("boom"), "insert row"), KindDatabase},
		{errors.New("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.kind {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.kind)
		}
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("list patients: %w", NotFound("patient"))
	if !IsKind(err, KindNotFound) {
		t.Errorf("wrapped error lost its kind: %v", err)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, "query patients")
	if !errors.Is(err, cause) {
		t.Error("cause not reachable via errors.Is")
	}
	if err.Error() != "query patients" {
		t.Errorf("wrap message: %q", err.Error())
	}
}
