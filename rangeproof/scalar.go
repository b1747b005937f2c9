package rangeproof

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/ing-bank/zkrp/util/bn"

	"github.com/oddlane/bulletproofs/group"
)

// Order is the scalar field modulus every Scalar value in this package is
// reduced against. It is the teacher's own ORDER constant generalized from
// P256 to ristretto255's order, exposed here instead of re-derived in each
// file that needs it (bulletproofs/bulletproofs.go's `var ORDER =
// p256.CURVE.N`).
var Order = group.Order

// RandomScalar samples a uniform element of the scalar field. A nil reader
// defaults to crypto/rand.Reader, matching the teacher's
// `rand.Int(rand.Reader, ORDER)` calls throughout bulletproofs/bp.go and
// bulletproofs/multibp.go.
func RandomScalar(rnd io.Reader) *big.Int {
	if rnd == nil {
		rnd = rand.Reader
	}
	s, err := rand.Int(rnd, Order)
	if err != nil {
		// crypto/rand.Reader (or an equivalent CSPRNG) is not expected to
		// fail; a failure here means the entropy source itself is broken.
		panic("rangeproof: random scalar: " + err.Error())
	}
	return s
}

func scalarAdd(a, b *big.Int) *big.Int { return bn.Mod(bn.Add(a, b), Order) }
func scalarSub(a, b *big.Int) *big.Int { return bn.Mod(bn.Sub(a, b), Order) }
func scalarMul(a, b *big.Int) *big.Int { return bn.Mod(bn.Multiply(a, b), Order) }
func scalarNeg(a *big.Int) *big.Int    { return bn.Mod(bn.Sub(Order, a), Order) }
func scalarInverse(a *big.Int) *big.Int {
	return bn.ModInverse(a, Order)
}

// powerVector returns (x^0, x^1, ..., x^(n-1)), the power sequence the
// verifier uses for the y powers of the range statement. This is
// util::exp_iter from the spec.
func powerVector(x *big.Int, n int) []*big.Int {
	result := make([]*big.Int, n)
	acc := big.NewInt(1)
	for i := 0; i < n; i++ {
		result[i] = new(big.Int).Set(acc)
		acc = scalarMul(acc, x)
	}
	return result
}

// powerVectorFrom returns (x^start, x^(start+1), ..., x^(start+n-1)), the
// shifted power sequence a party at slot offset `start` (= j*n for party j
// in an aggregated statement) needs so its local r(x) terms line up with
// the globally y-scaled H generators the dealer folds everyone's shares
// into.
func powerVectorFrom(x *big.Int, start, n int) []*big.Int {
	acc := scalarPow(x, start)
	result := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		result[i] = new(big.Int).Set(acc)
		acc = scalarMul(acc, x)
	}
	return result
}

func scalarPow(x *big.Int, n int) *big.Int {
	result := big.NewInt(1)
	for i := 0; i < n; i++ {
		result = scalarMul(result, x)
	}
	return result
}

// innerProduct computes <a, b> mod Order.
func innerProduct(a, b []*big.Int) *big.Int {
	if len(a) != len(b) {
		panic("rangeproof: inner product of mismatched-length vectors")
	}
	acc := big.NewInt(0)
	for i := range a {
		acc = scalarAdd(acc, scalarMul(a[i], b[i]))
	}
	return acc
}

func vectorAddConst(a []*big.Int, c *big.Int) []*big.Int {
	result := make([]*big.Int, len(a))
	for i := range a {
		result[i] = scalarAdd(a[i], c)
	}
	return result
}

// scalarCanonicalBytes encodes s as 32 big-endian bytes, the canonical
// on-wire representation for every scalar this module serializes.
func scalarCanonicalBytes(s *big.Int) []byte {
	b := make([]byte, 32)
	new(big.Int).Mod(s, Order).FillBytes(b)
	return b
}

// scalarFromCanonicalBytes decodes a 32-byte big-endian encoding, failing
// if it is not the canonical reduced representative.
func scalarFromCanonicalBytes(b []byte) (*big.Int, error) {
	if len(b) != 32 {
		return nil, newError(FormatError, "scalar must be 32 bytes, got %d", len(b))
	}
	s := new(big.Int).SetBytes(b)
	if s.Cmp(Order) >= 0 {
		return nil, newError(FormatError, "scalar encoding is not canonical (>= group order)")
	}
	return s, nil
}
