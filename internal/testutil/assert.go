package testutil

import (
	"reflect"
	"testing"
	"time"
)

// AssertEqual asserts that values are deeply equal.
func AssertEqual[T any](t testing.TB, a, b T) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected '%v' to be equal to '%v'", a, b)
	}
}

// AssertPanics asserts that f panics.
func AssertPanics(t testing.TB, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	f()
}

// AssertEventuallyTrue asserts that f eventually returns true.
func AssertEventuallyTrue(t testing.TB, f func() bool, timeout ...time.Duration) {
	t.Helper()
	limit := time.Second
	if timeout != nil {
		limit = timeout[0]
	}

	timer := time.NewTimer(limit)
	defer timer.Stop()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			t.Fatalf("timeout: expected eventually to be true")

		case <-ticker.C:
			if f() {
				return
			}
		}
	}
}
