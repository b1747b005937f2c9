package rangeproof

import (
	"fmt"
	"math/big"

	"github.com/oddlane/bulletproofs/group"
)

// hashToCurveDST is the domain-separation tag mixed into every generator
// derivation, generalizing the teacher's fixed seed strings
// (bulletproofs.go's `SEEDH = "BulletproofsDoesNotNeedTrustedSetupH"`,
// `SEEDU = "BulletproofsDoesNotNeedTrustedSetupU"`) into one DST used with
// per-index labels, so that extending gens_capacity or party_capacity only
// appends to the sequence instead of reshuffling it.
const hashToCurveDST = "bulletproofs-aggregated-range-proof-generators-v1"

// PedersenGenerators is the (B, B_blinding) pair used for value
// commitments: Commit(v, r) = v*B + r*B_blinding.
type PedersenGenerators struct {
	B         *group.Point
	BBlinding *group.Point
}

// Commit returns v*B + r*B_blinding.
func (pg PedersenGenerators) Commit(v, r *big.Int) *group.Point {
	vB := new(group.Point).MulBase(v)
	rH := new(group.Point).Mul(pg.BBlinding, r)
	return new(group.Point).Add(vB, rH)
}

// Generators is the deterministic, read-only pool of party- and
// bit-indexed bases the protocol commits bit-decompositions against. It is
// immutable after construction (NewGenerators does all the hashing up front), so
// concurrent readers need no synchronization, matching spec.md §9's "Shared
// read-only generators" guidance, and generalizing the teacher's
// `BulletProofSetupParams.Gg/Hh` (bulletproofs/bp.go), which only ever held
// a single party's worth of bases.
type Generators struct {
	pedersen       PedersenGenerators
	partyCapacity  int
	gensCapacity   int
	g              [][]*group.Point // [party][slot]
	h              [][]*group.Point
}

// NewGenerators precomputes partyCapacity vectors of length gensCapacity
// for G and for H by hashing (label, party index, slot index) to the
// curve, plus the Pedersen pair (B, B_blinding). The prefix of the
// resulting sequence is stable under growing either capacity.
func NewGenerators(pg PedersenGenerators, gensCapacity, partyCapacity int) *Generators {
	gens := &Generators{
		pedersen:      pg,
		partyCapacity: partyCapacity,
		gensCapacity:  gensCapacity,
		g:             make([][]*group.Point, partyCapacity),
		h:             make([][]*group.Point, partyCapacity),
	}
	for j := 0; j < partyCapacity; j++ {
		gens.g[j] = make([]*group.Point, gensCapacity)
		gens.h[j] = make([]*group.Point, gensCapacity)
		for i := 0; i < gensCapacity; i++ {
			gens.g[j][i] = group.HashToPoint(fmt.Sprintf("G/%d/%d", j, i), hashToCurveDST)
			gens.h[j][i] = group.HashToPoint(fmt.Sprintf("H/%d/%d", j, i), hashToCurveDST)
		}
	}
	return gens
}

// NewPedersenGenerators derives the (B, B_blinding) pair used both
// standalone and as part of a Generators pool.
func NewPedersenGenerators() PedersenGenerators {
	return PedersenGenerators{
		B:         group.Base(),
		BBlinding: group.HashToPoint("B_blinding", hashToCurveDST),
	}
}

// Pedersen returns the shared Pedersen pair.
func (g *Generators) Pedersen() PedersenGenerators { return g.pedersen }

// GensCapacity returns the per-party generator capacity.
func (g *Generators) GensCapacity() int { return g.gensCapacity }

// PartyCapacity returns the maximum number of parties this pool supports.
func (g *Generators) PartyCapacity() int { return g.partyCapacity }

// Share returns the j-th party's length-n generator slices, plus the
// shared Pedersen pair.
func (g *Generators) Share(j, n int) ([]*group.Point, []*group.Point, PedersenGenerators, error) {
	if j < 0 || j >= g.partyCapacity {
		return nil, nil, PedersenGenerators{}, newError(InvalidGeneratorsLength,
			"party index %d out of range [0,%d)", j, g.partyCapacity)
	}
	if n > g.gensCapacity {
		return nil, nil, PedersenGenerators{}, newError(InvalidGeneratorsLength,
			"requested n=%d exceeds gens_capacity=%d", n, g.gensCapacity)
	}
	return g.g[j][:n], g.h[j][:n], g.pedersen, nil
}

// All returns the concatenated G and H generators for the first m parties'
// first n slots each — i.e. gens.G(n,m) / gens.H(n,m) from spec.md §4.2 —
// plus the shared Pedersen pair, so callers that only ever touch the
// aggregate view don't need a separate Pedersen() call.
func (g *Generators) All(n, m int) (gAll, hAll []*group.Point, pg PedersenGenerators, err error) {
	if m > g.partyCapacity {
		return nil, nil, PedersenGenerators{}, newError(InvalidGeneratorsLength,
			"requested m=%d exceeds party_capacity=%d", m, g.partyCapacity)
	}
	if n > g.gensCapacity {
		return nil, nil, PedersenGenerators{}, newError(InvalidGeneratorsLength,
			"requested n=%d exceeds gens_capacity=%d", n, g.gensCapacity)
	}
	gAll = make([]*group.Point, 0, n*m)
	hAll = make([]*group.Point, 0, n*m)
	for j := 0; j < m; j++ {
		gAll = append(gAll, g.g[j][:n]...)
		hAll = append(hAll, g.h[j][:n]...)
	}
	return gAll, hAll, g.pedersen, nil
}
