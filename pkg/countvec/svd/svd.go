// Package svd factors a PPMI matrix into low-rank singular vectors.
//
// Truncated avoids a full SVD of W by factorizing the symmetric Gram matrix
// B = W·Wᵀ. The eigenvalues of B are the squared singular values of W and its
// eigenvectors are the left singular vectors; the right singular vectors are
// recovered from W = U·diag(s)·V.
//
// Memory is O(n²) in the row count of W for both W and B. That bounds the
// vocabulary sizes this package is meant for.
package svd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/countvec/pkg/countvec/internalerr"
)

// Result holds a (possibly truncated) singular value decomposition
// W ≈ U·diag(S)·V.
type Result struct {
	// S holds the singular values in descending order.
	S []float64
	// U is rows(W) x k; its rows are the word vectors.
	U *mat.Dense
	// V is k x cols(W).
	V *mat.Dense
}

// Rank returns the number of retained components.
func (r *Result) Rank() int {
	return len(r.S)
}

// Truncated returns the top-k singular triplets of w.
//
// Singular values whose eigenvalue is zero (or numerically negative) are
// reported as 0 and their rows of V are left at zero.
func Truncated(w mat.Matrix, k int) (*Result, error) {
	n, cols := w.Dims()
	if k <= 0 {
		return nil, fmt.Errorf("svd: wordvec size k=%d must be positive: %w", k, internalerr.ErrInvalidConfig)
	}
	if k > n {
		return nil, fmt.Errorf("svd: wordvec size k=%d exceeds row count %d: %w", k, n, internalerr.ErrInvalidConfig)
	}
	if err := checkFinite("input", w); err != nil {
		return nil, err
	}

	var gram mat.SymDense
	gram.SymOuterK(1, w)
	if err := checkGram(&gram); err != nil {
		return nil, err
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(&gram, true); !ok {
		return nil, fmt.Errorf("svd: eigendecomposition of %dx%d gram matrix did not converge: %w", n, n, internalerr.ErrNumerical)
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Values come back ascending; take the last k in reverse.
	s := make([]float64, k)
	u := mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		src := n - 1 - c
		s[c] = math.Sqrt(math.Max(values[src], 0))
		for r := 0; r < n; r++ {
			u.Set(r, c, vectors.At(r, src))
		}
	}
	normalizeSigns(u, nil)

	v := mat.NewDense(k, cols, nil)
	v.Mul(u.T(), w)
	tol := zeroTolerance(n, cols, s)
	for c := 0; c < k; c++ {
		row := v.RawRowView(c)
		if s[c] <= tol {
			s[c] = 0
			for j := range row {
				row[j] = 0
			}
			continue
		}
		inv := 1 / s[c]
		for j := range row {
			row[j] *= inv
		}
	}

	res := &Result{S: s, U: u, V: v}
	if err := res.check(); err != nil {
		return nil, err
	}
	return res, nil
}

// Full computes the thin SVD of w directly. It is the slow path for small
// matrices and the reference Truncated is compared against.
func Full(w mat.Matrix) (*Result, error) {
	if err := checkFinite("input", w); err != nil {
		return nil, err
	}

	var f mat.SVD
	if ok := f.Factorize(w, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd: factorization did not converge: %w", internalerr.ErrNumerical)
	}

	var u, vt mat.Dense
	f.UTo(&u)
	f.VTo(&vt)

	// VTo yields V; Result keeps Vᵀ so that W = U·diag(S)·V holds.
	var v mat.Dense
	v.CloneFrom(vt.T())
	normalizeSigns(&u, &v)

	res := &Result{S: f.Values(nil), U: &u, V: &v}
	if err := res.check(); err != nil {
		return nil, err
	}
	return res, nil
}

// Vectors returns the first dim columns of U, one row per word.
func (r *Result) Vectors(dim int) *mat.Dense {
	rows, _ := r.U.Dims()
	if dim <= 0 || dim > r.Rank() {
		dim = r.Rank()
	}
	return mat.DenseCopyOf(r.U.Slice(0, rows, 0, dim))
}

// Reconstruct returns U·diag(S)·V.
func (r *Result) Reconstruct() *mat.Dense {
	var us mat.Dense
	us.CloneFrom(r.U)
	rows, _ := us.Dims()
	for i := 0; i < rows; i++ {
		row := us.RawRowView(i)
		for j := range row {
			row[j] *= r.S[j]
		}
	}

	var out mat.Dense
	out.Mul(&us, r.V)
	return &out
}

// Residual returns the Frobenius norm of w - U·diag(S)·V.
func (r *Result) Residual(w mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(w, r.Reconstruct())
	return mat.Norm(&diff, 2)
}

func (r *Result) check() error {
	for i, v := range r.S {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("svd: singular value %d is %v: %w", i, v, internalerr.ErrNumerical)
		}
	}
	if err := checkFinite("left singular vectors", r.U); err != nil {
		return err
	}
	return checkFinite("right singular vectors", r.V)
}

// normalizeSigns flips each column of u so that its largest-magnitude entry
// is positive, together with the matching row of v when v is not nil.
// Singular vectors are only defined up to sign.
func normalizeSigns(u, v *mat.Dense) {
	rows, cols := u.Dims()
	for c := 0; c < cols; c++ {
		best := 0.0
		for r := 0; r < rows; r++ {
			if v := u.At(r, c); math.Abs(v) > math.Abs(best) {
				best = v
			}
		}
		if best >= 0 {
			continue
		}
		for r := 0; r < rows; r++ {
			u.Set(r, c, -u.At(r, c))
		}
		if v != nil {
			row := v.RawRowView(c)
			for j := range row {
				row[j] = -row[j]
			}
		}
	}
}

// zeroTolerance is the threshold below which a singular value is treated as
// zero when recovering V.
func zeroTolerance(rows, cols int, s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	dim := rows
	if cols > dim {
		dim = cols
	}
	const machEps = 0x1p-52
	return float64(dim) * machEps * s[0]
}

func checkFinite(name string, m mat.Matrix) error {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("svd: %s has non-finite value %v at (%d, %d): %w", name, v, i, j, internalerr.ErrNumerical)
			}
		}
	}
	return nil
}

func checkGram(b *mat.SymDense) error {
	if err := checkFinite("gram matrix", b); err != nil {
		return err
	}
	n := b.SymmetricDim()
	for i := 0; i < n; i++ {
		if b.At(i, i) < 0 {
			return fmt.Errorf("svd: gram matrix has negative diagonal at %d: %w", i, internalerr.ErrNumerical)
		}
	}
	return nil
}
