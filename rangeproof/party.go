package rangeproof

import (
	"math/big"

	"github.com/oddlane/bulletproofs/group"
)

// ValueCommitment is the first message a party sends the dealer: its
// Pedersen commitment to v, plus the blinded bit-decomposition commitments
// A and S. This generalizes the per-party pieces bundled inline inside
// bulletproofs/multibp.go's MultiProve into an explicit wire message, per
// the party/dealer split spec.md §4.4/§4.5 calls for.
type ValueCommitment struct {
	V *group.Point
	A *group.Point
	S *group.Point
}

// ValueChallenge is the dealer's response to the gathered ValueCommitments:
// the (y, z) challenge pair bip.go/bp.go derive from the transcript after
// committing A and S.
type ValueChallenge struct {
	Y *big.Int
	Z *big.Int
}

// PolyCommitment is a party's second message: commitments to the degree-2
// polynomial t(X)'s linear and quadratic coefficients.
type PolyCommitment struct {
	T1 *group.Point
	T2 *group.Point
}

// PolyChallenge is the dealer's x challenge binding the poly commitments.
type PolyChallenge struct {
	X *big.Int
}

// ProofShare is a single party's final contribution: its slice of the
// aggregated l(x)/r(x) vectors plus its t(x), and the blinding openings
// needed to combine shares into one aggregated proof.
type ProofShare struct {
	TX         *big.Int
	TXBlinding *big.Int
	EBlinding  *big.Int
	L          []*big.Int
	R          []*big.Int
}

// Party is a single participant in an aggregated proof, holding its secret
// value and blinding until it is consumed into the next round. Each round
// is its own type, so a later round's method cannot be called on an
// earlier round's value. A round is not marked as used once it has
// produced the next one: calling its method again is not rejected, and
// works on the state that the first call already zeroized.
type Party struct {
	j         int
	n         int
	v         uint64
	vBlinding *big.Int
	gens      []*group.Point
	hGens     []*group.Point
	pedersen  PedersenGenerators
}

// NewParty constructs a party for bit-width n holding secret value v and
// blinding vBlinding, given its share of the shared generator pool. j is
// this party's index within the aggregated statement, used to offset its
// z-power coefficient (z^(2+j)) so that summing every party's r(x) and
// t_x_blinding reproduces the single aggregated range statement instead of
// m copies of the same one-party statement.
func NewParty(gens *Generators, j, n int, v uint64, vBlinding *big.Int) (*Party, error) {
	if n != 8 && n != 16 && n != 32 && n != 64 {
		return nil, newError(InvalidBitsize, "bitsize must be one of {8,16,32,64}, got %d", n)
	}
	g, h, pg, err := gens.Share(j, n)
	if err != nil {
		return nil, err
	}
	return &Party{j: j, n: n, v: v, vBlinding: vBlinding, gens: g, hGens: h, pedersen: pg}, nil
}

// PartyAwaitingPosition is a Party that has not yet committed to its bit
// decomposition. Its slot j within the aggregated statement is already
// fixed by NewParty.
type PartyAwaitingPosition struct {
	*Party
}

// AwaitingPosition wraps a freshly constructed Party for assignment.
func (p *Party) AwaitingPosition() *PartyAwaitingPosition {
	return &PartyAwaitingPosition{Party: p}
}

// PartyAwaitingValueChallenge holds everything the party must remember
// between sending its ValueCommitment and receiving the dealer's (y, z)
// challenge: the bit-decomposition vectors and their blinding vectors.
type PartyAwaitingValueChallenge struct {
	p         *Party
	aL        []*big.Int
	aR        []*big.Int
	sL        []*big.Int
	sR        []*big.Int
	aBlinding *big.Int
	sBlinding *big.Int
	destroyed bool
}

// AssignPosition decomposes v into its n bits, samples the A/S blinding
// vectors, and commits to them, generalizing the aL/aR/sL/sR construction
// inline in bulletproofs/bp.go's Prove and bulletproofs/multibp.go's
// MultiProve. Bit extraction uses a plain shift-and-mask, which touches
// every bit of v unconditionally regardless of its value and so never
// branches on secret data.
func (a *PartyAwaitingPosition) AssignPosition(rnd randSource) (*PartyAwaitingValueChallenge, *ValueCommitment) {
	n := a.n
	aL := make([]*big.Int, n)
	aR := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		bit := (a.v >> uint(i)) & 1
		aL[i] = big.NewInt(int64(bit))
		aR[i] = scalarSub(aL[i], big.NewInt(1))
	}

	sL := make([]*big.Int, n)
	sR := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		sL[i] = RandomScalar(rnd)
		sR[i] = RandomScalar(rnd)
	}

	aBlinding := RandomScalar(rnd)
	sBlinding := RandomScalar(rnd)

	v := a.pedersen.Commit(new(big.Int).SetUint64(a.v), a.vBlinding)

	aCommit := group.MSM(aL, a.gens)
	aCommit.Add(aCommit, group.MSM(aR, a.hGens))
	aCommit.Add(aCommit, new(group.Point).Mul(a.pedersen.BBlinding, aBlinding))

	sCommit := group.MSM(sL, a.gens)
	sCommit.Add(sCommit, group.MSM(sR, a.hGens))
	sCommit.Add(sCommit, new(group.Point).Mul(a.pedersen.BBlinding, sBlinding))

	next := &PartyAwaitingValueChallenge{
		p: a.Party, aL: aL, aR: aR, sL: sL, sR: sR,
		aBlinding: aBlinding, sBlinding: sBlinding,
	}
	return next, &ValueCommitment{V: v, A: aCommit, S: sCommit}
}

// randSource is the minimal io.Reader surface RandomScalar needs; declared
// locally so callers can pass crypto/rand.Reader or nil without this
// package importing io just for the parameter type.
type randSource = interface {
	Read(p []byte) (n int, err error)
}

// PartyAwaitingPolyChallenge holds the party's t(x) polynomial coefficient
// commitments until the dealer's x challenge arrives.
type PartyAwaitingPolyChallenge struct {
	p          *Party
	offset     *big.Int
	l0, l1     []*big.Int
	r0, r1     []*big.Int
	t1, t2     *big.Int
	t1Blinding *big.Int
	t2Blinding *big.Int
	aBlinding  *big.Int
	sBlinding  *big.Int
	destroyed  bool
}

// ApplyChallenge consumes the value challenge (y, z), builds the l(x),
// r(x) coefficient vectors and the t(x) = <l(x), r(x)> polynomial, commits
// to its degree-1 and degree-2 coefficients, and zeroizes the raw
// bit-decomposition vectors this party no longer needs. This mirrors the
// middle third of bulletproofs/multibp.go's MultiProve, split out as its
// own round per the dealer/party message protocol.
func (v *PartyAwaitingValueChallenge) ApplyChallenge(rnd randSource, ch *ValueChallenge) (*PartyAwaitingPolyChallenge, *PolyCommitment) {
	n := v.p.n
	z := ch.Z
	y := ch.Y

	offset := scalarMul(scalarMul(z, z), scalarPow(z, v.p.j))
	yPowers := powerVectorFrom(y, v.p.j*n, n)
	twoPowers := powersOfTwo(n)

	l0 := vectorAddConst(v.aL, scalarNeg(z))
	l1 := make([]*big.Int, n)
	for i := range v.sL {
		l1[i] = new(big.Int).Set(v.sL[i])
	}

	r0 := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		r0[i] = scalarAdd(scalarMul(yPowers[i], scalarAdd(v.aR[i], z)), scalarMul(offset, twoPowers[i]))
	}
	r1 := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		r1[i] = scalarMul(yPowers[i], v.sR[i])
	}

	t0 := innerProduct(l0, r0)
	_ = t0 // t0 is never transmitted; only its blinded commitment matters downstream.

	t1 := scalarAdd(innerProduct(l0, r1), innerProduct(l1, r0))
	t2 := innerProduct(l1, r1)

	t1Blinding := RandomScalar(rnd)
	t2Blinding := RandomScalar(rnd)

	pg := v.p.pedersen
	t1Commit := pg.Commit(t1, t1Blinding)
	t2Commit := pg.Commit(t2, t2Blinding)

	next := &PartyAwaitingPolyChallenge{
		p: v.p, offset: offset,
		l0: l0, l1: l1, r0: r0, r1: r1,
		t1: t1, t2: t2, t1Blinding: t1Blinding, t2Blinding: t2Blinding,
		aBlinding: v.aBlinding, sBlinding: v.sBlinding,
	}
	v.DestroyVectors()
	return next, &PolyCommitment{T1: t1Commit, T2: t2Commit}
}

// DestroyVectors zeroizes the bit-decomposition and blinding vectors once
// their contribution has been folded into l0/r0/l1/r1; the raw a_blinding
// and s_blinding scalars survive into the next round since e_blinding
// still needs them once x is known.
func (v *PartyAwaitingValueChallenge) DestroyVectors() {
	if v.destroyed {
		return
	}
	zeroizeScalars(v.aL, v.aR, v.sL, v.sR)
	v.destroyed = true
}

// Destroy abandons this round entirely, zeroizing everything including
// the blinding scalars. Callers that stop the protocol mid-flight (e.g. a
// dealer reports another party malformed) should call this instead of
// letting the round progress.
func (v *PartyAwaitingValueChallenge) Destroy() {
	v.DestroyVectors()
	v.aBlinding, v.sBlinding = zeroScalar(), zeroScalar()
}

// ApplyChallenge consumes the poly challenge x, evaluates l(x), r(x), t(x),
// and returns this party's ProofShare. A zero x challenge would let the
// share reveal v.vBlinding outright, so the dealer is required to reject
// x == 0 before ever calling this; ApplyChallenge defends in depth by
// refusing too, returning a MaliciousDealer error.
func (p *PartyAwaitingPolyChallenge) ApplyChallenge(ch *PolyChallenge) (*ProofShare, error) {
	if ch.X.Sign() == 0 {
		return nil, newError(MaliciousDealer, "poly challenge x must not be zero")
	}
	x := ch.X
	n := p.p.n

	l := make([]*big.Int, n)
	r := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		l[i] = scalarAdd(p.l0[i], scalarMul(x, p.l1[i]))
		r[i] = scalarAdd(p.r0[i], scalarMul(x, p.r1[i]))
	}

	tx := innerProduct(l, r)
	xSq := scalarMul(x, x)
	txBlinding := scalarAdd(scalarMul(p.offset, p.p.vBlinding), scalarAdd(scalarMul(x, p.t1Blinding), scalarMul(xSq, p.t2Blinding)))
	eBlinding := scalarAdd(p.aBlinding, scalarMul(x, p.sBlinding))

	share := &ProofShare{
		TX: tx, TXBlinding: txBlinding, EBlinding: eBlinding,
		L: l, R: r,
	}
	p.Destroy()
	return share, nil
}

// Destroy zeroizes this round's polynomial coefficients and blinding
// factors.
func (p *PartyAwaitingPolyChallenge) Destroy() {
	if p.destroyed {
		return
	}
	zeroizeScalars(p.l0, p.l1, p.r0, p.r1)
	p.t1, p.t2 = zeroScalar(), zeroScalar()
	p.t1Blinding, p.t2Blinding = zeroScalar(), zeroScalar()
	p.aBlinding, p.sBlinding = zeroScalar(), zeroScalar()
	p.destroyed = true
}

func zeroizeScalars(vs ...[]*big.Int) {
	for _, v := range vs {
		for i := range v {
			v[i].SetInt64(0)
		}
	}
}

func zeroScalar() *big.Int { return big.NewInt(0) }

func powersOfTwo(n int) []*big.Int {
	result := make([]*big.Int, n)
	acc := big.NewInt(1)
	for i := 0; i < n; i++ {
		result[i] = new(big.Int).Set(acc)
		acc = new(big.Int).Lsh(acc, 1)
	}
	return result
}
