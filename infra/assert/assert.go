package assert

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resolve(opts []Option) options {
	var os options
	for _, o := range opts {
		o.apply(&os)
	}
	return os
}

func fail(t *testing.T, os options, format string, args ...interface{}) {
	t.Helper()
	if os.msg != "" {
		t.Errorf("%s", os.msg)
	} else {
		t.Errorf(format, args...)
	}
	if os.stop {
		t.FailNow()
	}
}

// Equal asserts that got == want (or, for non-comparable types, that they are
// deep-equal via cmp.Diff).
func Equal[T any](t *testing.T, got, want T, opts ...Option) {
	t.Helper()
	os := resolve(opts)

	diff := cmp.Diff(want, got, os.cmpOpts...)
	if diff == "" {
		return
	}
	if os.diff {
		fail(t, os, "got != want:\n%s", diff)
		return
	}
	fail(t, os, "got %+v, want %+v", got, want)
}

// NotEqual asserts that got != want.
func NotEqual[T any](t *testing.T, got, want T, opts ...Option) {
	t.Helper()
	os := resolve(opts)
	if cmp.Diff(want, got, os.cmpOpts...) == "" {
		fail(t, os, "got %+v, did not want %+v", got, want)
	}
}

// True asserts that cond is true.
func True(t *testing.T, cond bool, opts ...Option) {
	t.Helper()
	if !cond {
		fail(t, resolve(opts), "expected condition to be true")
	}
}

// False asserts that cond is false.
func False(t *testing.T, cond bool, opts ...Option) {
	t.Helper()
	if cond {
		fail(t, resolve(opts), "expected condition to be false")
	}
}

// NoErr asserts that err is nil.
func NoErr(t *testing.T, err error, opts ...Option) {
	t.Helper()
	if err != nil {
		fail(t, resolve(opts), "unexpected error: %v", err)
	}
}

// Err asserts that err is non-nil.
func Err(t *testing.T, err error, opts ...Option) {
	t.Helper()
	if err == nil {
		fail(t, resolve(opts), "expected an error, got nil")
	}
}
