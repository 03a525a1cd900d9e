package quadbench

import (
	"fmt"
	"math"
	"sort"
)

// Function is a scalar function f: float64 -> float64.
// Implementations must be side-effect free: the integrator evaluates the same
// Function from many goroutines at once without synchronization.
type Function func(x float64) float64

// Constant returns f(x) = c.
func Constant(c float64) Function {
	return func(float64) float64 { return c }
}

// Identity returns f(x) = x.
func Identity() Function {
	return func(x float64) float64 { return x }
}

// Power returns f(x) = x^p.
func Power(p float64) Function {
	return func(x float64) float64 { return math.Pow(x, p) }
}

// Sin returns f(x) = sin(x).
func Sin() Function { return math.Sin }

// Cos returns f(x) = cos(x).
func Cos() Function { return math.Cos }

// Exp returns f(x) = e^x.
func Exp() Function { return math.Exp }

// Compose returns outer(inner(x)).
func Compose(outer, inner Function) Function {
	return func(x float64) float64 { return outer(inner(x)) }
}

// functionRegistry backs LookupFunction. Entries are constructors so every
// lookup hands out a fresh closure.
var functionRegistry = map[string]func() Function{
	"zero":  func() Function { return Constant(0) },
	"one":   func() Function { return Constant(1) },
	"x":     Identity,
	"x2":    func() Function { return Power(2) },
	"x3":    func() Function { return Power(3) },
	"sqrt":  func() Function { return math.Sqrt },
	"sin":   Sin,
	"cos":   Cos,
	"exp":   Exp,
	"gauss": func() Function { return func(x float64) float64 { return math.Exp(-x * x) } },
}

// LookupFunction returns a stock function by name ("sin", "x2", ...).
func LookupFunction(name string) (Function, error) {
	ctor, ok := functionRegistry[name]
	if !ok {
		return nil, invalidArgument("unknown function %q (known: %v)", name, FunctionNames())
	}
	return ctor(), nil
}

// FunctionNames lists the names accepted by LookupFunction, sorted.
func FunctionNames() []string {
	names := make([]string, 0, len(functionRegistry))
	for name := range functionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// describe is used in log attributes.
func describe(a, b float64, n int) string {
	return fmt.Sprintf("[%g, %g] n=%d", a, b, n)
}
