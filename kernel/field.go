package kernel

// Field is the arithmetic the kernel folds over. Implementations decide the
// number representation: reduced-precision floats for throughput or dual
// numbers for derivatives.
type Field[T any] interface {
	Const(v float64) T
	Add(a, b T) T
	Sub(a, b T) T
	Mul(a, b T) T
	Div(a, b T) T
	Min(a, b T) T
	Max(a, b T) T
	Value(a T) float64
}

// Float32 evaluates in single precision.
type Float32 struct{}

func (Float32) Const(v float64) float32 { return float32(v) }
func (Float32) Add(a, b float32) float32 { return a + b }
func (Float32) Sub(a, b float32) float32 { return a - b }
func (Float32) Mul(a, b float32) float32 { return a * b }
func (Float32) Div(a, b float32) float32 { return a / b }
func (Float32) Min(a, b float32) float32 { return min(a, b) }
func (Float32) Max(a, b float32) float32 { return max(a, b) }
func (Float32) Value(a float32) float64 { return float64(a) }

// Float64 evaluates in double precision.
type Float64 struct{}

func (Float64) Const(v float64) float64 { return v }
func (Float64) Add(a, b float64) float64 { return a + b }
func (Float64) Sub(a, b float64) float64 { return a - b }
func (Float64) Mul(a, b float64) float64 { return a * b }
func (Float64) Div(a, b float64) float64 { return a / b }
func (Float64) Min(a, b float64) float64 { return min(a, b) }
func (Float64) Max(a, b float64) float64 { return max(a, b) }
func (Float64) Value(a float64) float64 { return a }

// Dual is a forward-mode dual number: a value and its partial derivatives
// with respect to the seeded variables. A nil D is an all-zero gradient.
type Dual struct {
	V float64
	D []float64
}

// Duals is the dual-number field over n seeded variables.
type Duals struct{ N int }

// Seed returns v as the k-th independent variable.
func (f Duals) Seed(v float64, k int) Dual {
	d := make([]float64, f.N)
	d[k] = 1
	return Dual{V: v, D: d}
}

func (Duals) Const(v float64) Dual { return Dual{V: v} }

func (Duals) Add(a, b Dual) Dual { return Dual{V: a.V + b.V, D: axpby(1, a.D, 1, b.D)} }

func (Duals) Sub(a, b Dual) Dual { return Dual{V: a.V - b.V, D: axpby(1, a.D, -1, b.D)} }

func (Duals) Mul(a, b Dual) Dual { return Dual{V: a.V * b.V, D: axpby(b.V, a.D, a.V, b.D)} }

func (Duals) Div(a, b Dual) Dual {
	return Dual{V: a.V / b.V, D: axpby(1/b.V, a.D, -a.V/(b.V*b.V), b.D)}
}

func (Duals) Min(a, b Dual) Dual {
	if b.V < a.V {
		return b
	}
	return a
}

func (Duals) Max(a, b Dual) Dual {
	if b.V > a.V {
		return b
	}
	return a
}

func (Duals) Value(a Dual) float64 { return a.V }

// axpby returns ca*a + cb*b, treating nil as zero.
func axpby(ca float64, a []float64, cb float64, b []float64) []float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		out := make([]float64, len(b))
		for i := range b {
			out[i] = cb * b[i]
		}
		return out
	case b == nil:
		out := make([]float64, len(a))
		for i := range a {
			out[i] = ca * a[i]
		}
		return out
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = ca*a[i] + cb*b[i]
	}
	return out
}
