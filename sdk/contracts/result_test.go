package contracts

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeOfExtractsCode(t *testing.T) {
	err := NewResult("OpenInput", OutOfRange, nil)
	if got := CodeOf(err); got != OutOfRange {
		t.Fatalf("got %v want %v", got, OutOfRange)
	}
}

func TestCodeOfNonResultErrorIsError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != Error {
		t.Fatalf("got %v want %v", got, Error)
	}
}

func TestCodeOfNilIsZero(t *testing.T) {
	if got := CodeOf(nil); got != 0 {
		t.Fatalf("got %v want 0", got)
	}
}

func TestResultWrapsCause(t *testing.T) {
	cause := fmt.Errorf("device unplugged")
	err := NewResult("Start", NotOpen, cause)
	var r *Result
	if !errors.As(err, &r) {
		t.Fatalf("expected errors.As to unwrap to *Result")
	}
	if r.Code != NotOpen {
		t.Fatalf("got code %v want %v", r.Code, NotOpen)
	}
	if !errors.Is(err, cause) && r.Unwrap() != cause {
		t.Fatalf("expected Unwrap to return the wrapped cause")
	}
}

func TestCodeStringValues(t *testing.T) {
	cases := map[Code]string{
		Error:       "Error",
		InvalidArg:  "InvalidArg",
		NoBackend:   "NoBackend",
		OutOfRange:  "OutOfRange",
		AlreadyOpen: "AlreadyOpen",
		NotOpen:     "NotOpen",
		AllocFailed: "AllocFailed",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", code, got, want)
		}
	}
}
