package events

import (
	"errors"
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
)

var errNotBracketed = errors.New("root is not bracketed")

// SolverConfig bounds every iterative search.
type SolverConfig struct {
	// ToleranceSeconds is the width of the final bracket.
	ToleranceSeconds float64 `json:"tolerance_seconds" yaml:"tolerance_seconds"`
	// MaxIterations caps each bisection.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// ScanStepMinutes is the stride used to bracket crossings when the
	// coarse estimate fails.
	ScanStepMinutes float64 `json:"scan_step_minutes" yaml:"scan_step_minutes"`
}

// DefaultSolverConfig converges to one second.
var DefaultSolverConfig = SolverConfig{
	ToleranceSeconds: 1,
	MaxIterations:    60,
	ScanStepMinutes:  10,
}

func (c SolverConfig) withDefaults() SolverConfig {
	if c.ToleranceSeconds <= 0 {
		c.ToleranceSeconds = DefaultSolverConfig.ToleranceSeconds
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultSolverConfig.MaxIterations
	}
	if c.ScanStepMinutes <= 0 {
		c.ScanStepMinutes = DefaultSolverConfig.ScanStepMinutes
	}
	return c
}

// Bisect finds x in [a, b] with f(x) = 0, given f(a) and f(b) of opposite
// sign, to within tol. It returns a *astro.ConvergenceError when maxIter
// halvings are not enough.
func Bisect(f func(float64) float64, a, b, tol float64, maxIter int) (float64, error) {
	fa, fb := f(a), f(b)
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if math.Signbit(fa) == math.Signbit(fb) {
		return 0, errNotBracketed
	}

	for i := 0; i < maxIter; i++ {
		m := (a + b) / 2
		if (b-a)/2 <= tol {
			return m, nil
		}
		fm := f(m)
		if fm == 0 {
			return m, nil
		}
		if math.Signbit(fm) == math.Signbit(fa) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	return 0, &astro.ConvergenceError{Event: "bisection", Iterations: maxIter, Residual: b - a}
}

// Bracket is an interval known to contain a sign change.
type Bracket struct {
	A, B float64
}

// Scan walks [start, end] in steps and returns every interval over which f
// changes sign in the requested direction: rising for − to +, falling for
// + to −.
func Scan(f func(float64) float64, start, end, step float64, rising bool) []Bracket {
	var out []Bracket
	a, fa := start, f(start)
	for a < end {
		b := math.Min(a+step, end)
		fb := f(b)
		if rising && fa < 0 && fb >= 0 || !rising && fa > 0 && fb <= 0 {
			out = append(out, Bracket{a, b})
		}
		a, fa = b, fb
	}
	return out
}
