// Package clock provides an explicit time source so the position
// manager and risk loop never call time.Now directly, per spec.md §9's
// "no global singletons" design note — tests inject a fixed or
// step-controlled clock instead of depending on wall time.
package clock

import "time"

// Clock is an explicit time dependency.
type Clock interface {
	Now() time.Time
}

// Real is the production Clock backed by the system wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fixed is a Clock that always returns the same instant, for
// deterministic tests.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }
