// Package group wraps the ristretto255 implementation from
// github.com/cloudflare/circl/group behind the narrow Point surface the
// rangeproof package needs: addition, scalar multiplication, compression,
// identity tests, a deterministic hash-to-group, and a naive
// multi-scalar-multiplication helper. It plays the role spec.md §1 treats
// as an external collaborator ("the underlying elliptic-curve group
// arithmetic... out of scope"); it is adapted from the teacher's own
// group/ristretto255.go, which wrapped the same circl package behind a
// dynamic-dispatch Element/Group interface supporting several curves. Only
// ristretto255 is needed here, so the interface collapses into one
// concrete type — in keeping with spec.md §9's own guidance against hiding
// state behind dynamic dispatch.
package group

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/cloudflare/circl/group"
)

// Order is the prime order of the ristretto255 group (and its scalar
// field). Every Scalar value handled by this module is kept reduced
// modulo Order.
var Order = ristrettoOrder()

func ristrettoOrder() *big.Int {
	n, ok := new(big.Int).SetString("1000000000000000000000000000000014def9dea2f79cd65812631a5cf5d3ed", 16)
	if !ok {
		panic("group: failed to parse ristretto255 order")
	}
	return n
}

// Point is an element of the ristretto255 group.
type Point struct {
	val group.Element
}

// Base returns the group's conventional generator B.
func Base() *Point {
	return &Point{val: group.Ristretto255.Generator()}
}

// Identity returns the group identity element.
func Identity() *Point {
	return &Point{val: group.Ristretto255.Identity()}
}

// HashToPoint deterministically derives a point with unknown discrete log
// from a label and a domain-separation tag. It backs the nothing-up-my-
// sleeve generator derivation the Generators component needs.
func HashToPoint(label, dst string) *Point {
	e := group.Ristretto255.HashToElement([]byte(label), []byte(dst))
	return &Point{val: e}
}

// RandomPoint samples a uniformly random group element. A nil reader
// defaults to crypto/rand.Reader.
func RandomPoint(rnd io.Reader) *Point {
	if rnd == nil {
		rnd = rand.Reader
	}
	return &Point{val: group.Ristretto255.RandomElement(rnd)}
}

func freshElement() group.Element {
	return group.Ristretto255.NewElement()
}

// Add sets the receiver to x + y and returns it.
func (p *Point) Add(x, y *Point) *Point {
	p.val = freshElement().Add(x.val, y.val)
	return p
}

// Sub sets the receiver to x - y and returns it.
func (p *Point) Sub(x, y *Point) *Point {
	neg := freshElement().Neg(y.val)
	p.val = freshElement().Add(x.val, neg)
	return p
}

// Neg sets the receiver to -x and returns it.
func (p *Point) Neg(x *Point) *Point {
	p.val = freshElement().Neg(x.val)
	return p
}

// Mul sets the receiver to s*x and returns it. s is reduced mod Order.
func (p *Point) Mul(x *Point, s *big.Int) *Point {
	sc := group.Ristretto255.NewScalar().SetBigInt(reduced(s))
	p.val = freshElement().Mul(x.val, sc)
	return p
}

// MulBase sets the receiver to s*B (B the group generator) and returns it.
func (p *Point) MulBase(s *big.Int) *Point {
	sc := group.Ristretto255.NewScalar().SetBigInt(reduced(s))
	p.val = freshElement().MulGen(sc)
	return p
}

// Set sets the receiver to x and returns it.
func (p *Point) Set(x *Point) *Point {
	p.val = freshElement().Set(x.val)
	return p
}

// IsEqual reports whether p and x denote the same group element.
func (p *Point) IsEqual(x *Point) bool {
	return p.val.IsEqual(x.val)
}

// IsIdentity reports whether p is the group identity.
func (p *Point) IsIdentity() bool {
	return p.val.IsIdentity()
}

// Compress returns the canonical 32-byte encoding of p.
func (p *Point) Compress() []byte {
	b, err := p.val.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("group: marshal point: %v", err))
	}
	return b
}

// Decompress parses a 32-byte canonical encoding into a point.
func Decompress(b []byte) (*Point, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("group: compressed point must be 32 bytes, got %d", len(b))
	}
	e := freshElement()
	if err := e.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("group: invalid point encoding: %w", err)
	}
	return &Point{val: e}, nil
}

func reduced(s *big.Int) *big.Int {
	return new(big.Int).Mod(s, Order)
}

// MSM computes Σ scalars[i]*points[i]. The spec calls for an msm API
// surface so callers can batch verification terms into a single check;
// this is a naive variable-time accumulation, not a Pippenger/Straus
// bucketing implementation.
func MSM(scalars []*big.Int, points []*Point) *Point {
	if len(scalars) != len(points) {
		panic("group: MSM scalar/point length mismatch")
	}
	acc := Identity()
	for i := range scalars {
		acc.Add(acc, new(Point).Mul(points[i], scalars[i]))
	}
	return acc
}
