package rangeproof

import (
	"math/big"

	"github.com/oddlane/bulletproofs/group"
	"github.com/oddlane/bulletproofs/transcript"
)

// Dealer coordinates an aggregated proof across m parties, mirroring the
// Party side's round-per-type structure. It owns the shared transcript and
// is the only participant who ever sees every party's commitments, which
// is why malicious-dealer and malformed-share detection both live here
// rather than on Party.
type DealerAwaitingValueCommitments struct {
	tr   *transcript.Transcript
	n    int
	m    int
	pg   PedersenGenerators
	g, h []*group.Point
}

// NewDealer seeds a fresh transcript with the range-proof domain separator
// for bit-width n across m parties, generalizing the single combined
// transcript bulletproofs/multibp.go's MultiProve builds inline via
// hashIPSP calls scattered through the function body.
func NewDealer(gens *Generators, label []byte, n, m int) (*DealerAwaitingValueCommitments, error) {
	if n != 8 && n != 16 && n != 32 && n != 64 {
		return nil, newError(InvalidBitsize, "bitsize must be one of {8,16,32,64}, got %d", n)
	}
	if m <= 0 || m&(m-1) != 0 {
		return nil, newError(InvalidGeneratorsLength, "party count must be a power of two, got %d", m)
	}
	g, h, pg, err := gens.All(n, m)
	if err != nil {
		return nil, err
	}
	tr := transcript.New(label)
	tr.RangeProofDomainSep(n, m)
	return &DealerAwaitingValueCommitments{tr: tr, n: n, m: m, pg: pg, g: g, h: h}, nil
}

// DealerAwaitingPolyCommitments holds what the dealer must remember
// between issuing the (y, z) challenge and receiving every party's poly
// commitment.
type DealerAwaitingPolyCommitments struct {
	tr    *transcript.Transcript
	n, m  int
	pg    PedersenGenerators
	g, h  []*group.Point
	vc    []*ValueCommitment
	y, z  *big.Int
}

// ReceiveValueCommitments appends every party's V to the transcript in
// party order, then the aggregate A = ΣA_j and S = ΣS_j (the same points
// RangeProof.Verify appends), and draws the (y, z) challenge, the combined
// analogue of bp.go's y/z derivation generalized across m parties' worth
// of commitments instead of one.
func (d *DealerAwaitingValueCommitments) ReceiveValueCommitments(vc []*ValueCommitment) (*DealerAwaitingPolyCommitments, *ValueChallenge, error) {
	if len(vc) != d.m {
		return nil, nil, newError(WrongNumBlindingFactors, "expected %d value commitments, got %d", d.m, len(vc))
	}
	aCommits := make([]*group.Point, len(vc))
	sCommits := make([]*group.Point, len(vc))
	for j, c := range vc {
		d.tr.AppendPoint("V", c.V.Compress())
		aCommits[j] = c.A
		sCommits[j] = c.S
	}
	d.tr.AppendPoint("A", combine(aCommits).Compress())
	d.tr.AppendPoint("S", combine(sCommits).Compress())
	y := d.tr.ChallengeScalar("y", Order)
	z := d.tr.ChallengeScalar("z", Order)

	next := &DealerAwaitingPolyCommitments{tr: d.tr, n: d.n, m: d.m, pg: d.pg, g: d.g, h: d.h, vc: vc, y: y, z: z}
	return next, &ValueChallenge{Y: y, Z: z}, nil
}

// DealerAwaitingProofShares holds what the dealer must remember between
// issuing the x challenge and receiving every party's share.
type DealerAwaitingProofShares struct {
	tr   *transcript.Transcript
	n, m int
	pg   PedersenGenerators
	g, h []*group.Point
	vc   []*ValueCommitment
	pc   []*PolyCommitment
	t1Sum, t2Sum *group.Point
	y, z *big.Int
	x    *big.Int
}

// ReceivePolyCommitments appends the aggregate T1 = ΣT1_j and T2 = ΣT2_j
// to the transcript and draws x.
func (d *DealerAwaitingPolyCommitments) ReceivePolyCommitments(pc []*PolyCommitment) (*DealerAwaitingProofShares, *PolyChallenge, error) {
	if len(pc) != d.m {
		return nil, nil, newError(WrongNumBlindingFactors, "expected %d poly commitments, got %d", d.m, len(pc))
	}
	t1Commits := make([]*group.Point, len(pc))
	t2Commits := make([]*group.Point, len(pc))
	for i, c := range pc {
		t1Commits[i] = c.T1
		t2Commits[i] = c.T2
	}
	t1Sum, t2Sum := combine(t1Commits), combine(t2Commits)
	d.tr.AppendPoint("T1", t1Sum.Compress())
	d.tr.AppendPoint("T2", t2Sum.Compress())
	x := d.tr.ChallengeScalar("x", Order)
	if x.Sign() == 0 {
		return nil, nil, newError(MaliciousDealer, "drew a zero poly challenge")
	}
	next := &DealerAwaitingProofShares{
		tr: d.tr, n: d.n, m: d.m, pg: d.pg, g: d.g, h: d.h, vc: d.vc, pc: pc,
		t1Sum: t1Sum, t2Sum: t2Sum,
		y: d.y, z: d.z, x: x,
	}
	return next, &PolyChallenge{X: x}, nil
}

// ReceiveShares combines every party's ProofShare into the aggregated
// RangeProof, first checking each share's local l(x)/r(x)/t(x) consistency
// against that party's own commitments so a single misbehaving party is
// identified by index rather than only manifesting as a verification
// failure on the whole proof — the MalformedProofShares{bad_shares} error
// spec.md §7 calls for. This generalizes the single-shot combination
// bulletproofs/multibp.go's MultiProve performs while it still has direct
// access to every party's secret state; here the dealer only ever sees
// what crossed the wire.
func (d *DealerAwaitingProofShares) ReceiveShares(rnd randSource, shares []*ProofShare) (*RangeProof, []*group.Point, error) {
	if len(shares) != d.m {
		return nil, nil, newError(WrongNumBlindingFactors, "expected %d proof shares, got %d", d.m, len(shares))
	}

	var bad []int
	for j, s := range shares {
		if !d.shareIsConsistent(j, s) {
			bad = append(bad, j)
		}
	}
	if len(bad) > 0 {
		return nil, nil, malformedShares(bad)
	}

	return d.combineShares(shares)
}

// ReceiveTrustedShares combines every party's ProofShare exactly as
// ReceiveShares does, but skips shareIsConsistent entirely. spec.md §4.5
// and §9 call this path out explicitly as safe only when every party
// runs inside this same process — an external, possibly adversarial party
// could submit a share that is locally self-consistent yet does not
// correspond to a value in range, which is exactly what the verifying
// path's per-share check (together with the top-level RangeProof.Verify
// it feeds into) is meant to catch.
func (d *DealerAwaitingProofShares) ReceiveTrustedShares(rnd randSource, shares []*ProofShare) (*RangeProof, []*group.Point, error) {
	if len(shares) != d.m {
		return nil, nil, newError(WrongNumBlindingFactors, "expected %d proof shares, got %d", d.m, len(shares))
	}
	return d.combineShares(shares)
}

func (d *DealerAwaitingProofShares) combineShares(shares []*ProofShare) (*RangeProof, []*group.Point, error) {
	n := d.n
	m := d.m
	l := make([]*big.Int, 0, n*m)
	r := make([]*big.Int, 0, n*m)
	tx := big.NewInt(0)
	txBlinding := big.NewInt(0)
	eBlinding := big.NewInt(0)
	for _, s := range shares {
		l = append(l, s.L...)
		r = append(r, s.R...)
		tx = scalarAdd(tx, s.TX)
		txBlinding = scalarAdd(txBlinding, s.TXBlinding)
		eBlinding = scalarAdd(eBlinding, s.EBlinding)
	}

	d.tr.AppendScalar("t_x", tx)
	d.tr.AppendScalar("t_x_blinding", txBlinding)
	d.tr.AppendScalar("e_blinding", eBlinding)

	w := d.tr.ChallengeScalar("w", Order)
	u := new(group.Point).MulBase(w)

	hPrime := switchGenerators(d.h, d.y)
	ipaProof := proveIPA(d.tr, d.g, hPrime, u, l, r)

	values := make([]*group.Point, m)
	for j, c := range d.vc {
		values[j] = c.V
	}
	aCommits := make([]*group.Point, m)
	sCommits := make([]*group.Point, m)
	for j, c := range d.vc {
		aCommits[j] = c.A
		sCommits[j] = c.S
	}

	proof := &RangeProof{
		a:          combine(aCommits),
		s:          combine(sCommits),
		t1:         d.t1Sum,
		t2:         d.t2Sum,
		tx:         tx,
		txBlinding: txBlinding,
		eBlinding:  eBlinding,
		ipa:        ipaProof,
	}
	return proof, values, nil
}

func combine(pts []*group.Point) *group.Point {
	acc := group.Identity()
	for _, p := range pts {
		acc.Add(acc, p)
	}
	return acc
}

// shareIsConsistent locally verifies party j's share against its own
// ValueCommitment and PolyCommitment, the single-party restriction of the
// check the top-level verifier performs that spec.md §4.5 calls for
// ("locally verify it against its own ValueCommitment and PolyCommitment
// using the same checks the top-level verifier uses restricted to party
// i"), grounded on the original dalek-cryptography crate's
// ProofShare::check_size: first that t_x = <l, r> (catches a share whose
// scalars were tampered with in transit), then that committing (t_x,
// t_x_blinding) under the shared Pedersen pair reproduces
// delta_j(n,y,z)*B + x*T1_j + x^2*T2_j + z^(2+j)*V_j — the single-party
// instance of the range identity this module's top-level Verify checks
// aggregated across all m parties. A party whose bit-decomposition only
// covers v mod 2^n (e.g. because it holds v >= 2^n) satisfies the first
// check but fails the second, since <l0, r0> then equals z^(2+j)*(v mod
// 2^n) + delta_j rather than z^(2+j)*v — the quantity actually committed
// in V_j.
func (d *DealerAwaitingProofShares) shareIsConsistent(j int, s *ProofShare) bool {
	if s == nil {
		return false
	}
	if len(s.L) != d.n || len(s.R) != d.n {
		return false
	}
	if innerProduct(s.L, s.R).Cmp(s.TX) != 0 {
		return false
	}

	x := d.x
	z := d.z
	y := d.y

	deltaJ := deltaForParty(d.n, j, y, z)

	lhs := d.pg.Commit(s.TX, s.TXBlinding)

	rhs := new(group.Point).MulBase(deltaJ)
	rhs.Add(rhs, new(group.Point).Mul(d.pc[j].T1, x))
	rhs.Add(rhs, new(group.Point).Mul(d.pc[j].T2, scalarMul(x, x)))
	coeff := scalarMul(scalarMul(z, z), scalarPow(z, j))
	rhs.Add(rhs, new(group.Point).Mul(d.vc[j].V, coeff))

	return lhs.IsEqual(rhs)
}

// deltaForParty is the single-party restriction of delta(n,m,y,z): party j
// contributes y-powers from its own slot offset j*n rather than from 0,
// and its z-correction term uses z^(3+j) instead of the single-party z^3,
// matching the per-party term the aggregated delta(n,m,y,z) sums over j.
func deltaForParty(n, j int, y, z *big.Int) *big.Int {
	sumY := big.NewInt(0)
	yPow := scalarPow(y, j*n)
	for i := 0; i < n; i++ {
		sumY = scalarAdd(sumY, yPow)
		yPow = scalarMul(yPow, y)
	}
	sumTwo := sumOfPowers(big.NewInt(2), n)

	zz := scalarMul(z, z)
	term1 := scalarMul(scalarSub(z, zz), sumY)

	z3j := scalarMul(zz, scalarMul(z, scalarPow(z, j)))
	term2 := scalarMul(z3j, sumTwo)

	return scalarSub(term1, term2)
}
