package rangeproof

import (
	"crypto/rand"
	"math/big"

	"github.com/oddlane/bulletproofs/group"
	"github.com/oddlane/bulletproofs/transcript"
)

// RangeProof is the aggregated proof that each of m committed values lies
// in [0, 2^n): the combined A/S/T1/T2 commitments, the t(x) opening, and
// the single IPA argument covering all m parties' bit-decompositions at
// once. This generalizes bulletproofs/multibp.go's MultiBulletProof
// struct, minus its embedded V slice — under the teacher's
// dynamic-dispatch Element type MultiBulletProof carried V directly, but
// spec.md §3 treats V as external ("carried alongside... rather than
// inside"), so a RangeProof is only ever meaningful together with the
// value commitments the caller already holds. n and m are likewise
// supplied by the caller at verification time rather than embedded: m is
// simply len(value_commitments), and n is a protocol parameter both sides
// already agree on out of band.
type RangeProof struct {
	a *group.Point
	s *group.Point

	t1 *group.Point
	t2 *group.Point

	tx         *big.Int
	txBlinding *big.Int
	eBlinding  *big.Int

	ipa *IPAProof
}

// ProveMultiple drives an in-process run of the full party/dealer message
// protocol for m values in a single call, for callers who do not need the
// parties to live in separate processes. It is the direct analogue of
// bulletproofs/multibp.go's MultiProve, restructured around the explicit
// round types instead of one monolithic function body.
func ProveMultiple(gens *Generators, label []byte, n int, values []uint64, blindings []*big.Int) (*RangeProof, []*group.Point, error) {
	if len(values) != len(blindings) {
		return nil, nil, newError(WrongNumBlindingFactors, "got %d values but %d blinding factors", len(values), len(blindings))
	}
	m := len(values)

	dealer, err := NewDealer(gens, label, n, m)
	if err != nil {
		return nil, nil, err
	}

	parties := make([]*PartyAwaitingValueChallenge, m)
	valueCommitments := make([]*ValueCommitment, m)
	for j := 0; j < m; j++ {
		party, err := NewParty(gens, j, n, values[j], blindings[j])
		if err != nil {
			return nil, nil, err
		}
		next, vc := party.AwaitingPosition().AssignPosition(rand.Reader)
		parties[j] = next
		valueCommitments[j] = vc
	}

	dealerPC, valueChallenge, err := dealer.ReceiveValueCommitments(valueCommitments)
	if err != nil {
		return nil, nil, err
	}

	polyParties := make([]*PartyAwaitingPolyChallenge, m)
	polyCommitments := make([]*PolyCommitment, m)
	for j, p := range parties {
		next, pc := p.ApplyChallenge(rand.Reader, valueChallenge)
		polyParties[j] = next
		polyCommitments[j] = pc
	}

	dealerShares, polyChallenge, err := dealerPC.ReceivePolyCommitments(polyCommitments)
	if err != nil {
		return nil, nil, err
	}

	shares := make([]*ProofShare, m)
	for j, p := range polyParties {
		share, err := p.ApplyChallenge(polyChallenge)
		if err != nil {
			return nil, nil, err
		}
		shares[j] = share
	}

	return dealerShares.ReceiveShares(rand.Reader, shares)
}

// ProveSingle is ProveMultiple specialized to m = 1, the common case of
// proving a single commitment's range without standing up a multi-party
// aggregation.
func ProveSingle(gens *Generators, label []byte, n int, v uint64, blinding *big.Int) (*RangeProof, *group.Point, error) {
	proof, values, err := ProveMultiple(gens, label, n, []uint64{v}, []*big.Int{blinding})
	if err != nil {
		return nil, nil, err
	}
	return proof, values[0], nil
}

// Verify checks the proof against its own transcript, recomputing every
// Fiat-Shamir challenge the way the dealer derived them and checking the
// two identities spec.md §4.6 calls for: the t(x) commitment opening
// (generalizing bp.go's condition 65 across m values), and the
// inner-product argument over the switched generators (condition 66/67,
// folded into verifyIPA's single multiexp check).
func (p *RangeProof) Verify(values []*group.Point, gens *Generators, label []byte, n int) error {
	if n != 8 && n != 16 && n != 32 && n != 64 {
		return newError(InvalidBitsize, "bitsize must be one of {8,16,32,64}, got %d", n)
	}
	m := len(values)
	if m <= 0 || m&(m-1) != 0 {
		return newError(InvalidGeneratorsLength, "value commitment count must be a power of two, got %d", m)
	}

	g, h, pg, err := gens.All(n, m)
	if err != nil {
		return err
	}

	tr := transcript.New(label)
	tr.RangeProofDomainSep(n, m)
	for _, v := range values {
		tr.AppendPoint("V", v.Compress())
	}
	tr.AppendPoint("A", p.a.Compress())
	tr.AppendPoint("S", p.s.Compress())
	y := tr.ChallengeScalar("y", Order)
	z := tr.ChallengeScalar("z", Order)

	tr.AppendPoint("T1", p.t1.Compress())
	tr.AppendPoint("T2", p.t2.Compress())
	x := tr.ChallengeScalar("x", Order)
	if x.Sign() == 0 {
		return newError(MaliciousDealer, "poly challenge x must not be zero")
	}

	delta := delta(n, m, y, z)

	lhs := pg.Commit(p.tx, p.txBlinding)

	rhs := new(group.Point).MulBase(delta)
	xSq := scalarMul(x, x)
	rhs.Add(rhs, new(group.Point).Mul(p.t1, x))
	rhs.Add(rhs, new(group.Point).Mul(p.t2, xSq))
	for j, v := range values {
		coeff := scalarMul(scalarMul(z, z), scalarPow(z, j))
		rhs.Add(rhs, new(group.Point).Mul(v, coeff))
	}

	if !lhs.IsEqual(rhs) {
		return newError(VerificationError, "proof failed to verify")
	}

	tr.AppendScalar("t_x", p.tx)
	tr.AppendScalar("t_x_blinding", p.txBlinding)
	tr.AppendScalar("e_blinding", p.eBlinding)
	w := tr.ChallengeScalar("w", Order)
	u := new(group.Point).MulBase(w)

	hPrime := switchGenerators(h, y)

	nm := n * m
	gSum := group.Identity()
	for _, gi := range g {
		gSum.Add(gSum, gi)
	}

	combinedExp := make([]*big.Int, nm)
	yPowers := powerVector(y, nm)
	twoPowers := powersOfTwo(n)
	for j := 0; j < m; j++ {
		offset := scalarMul(scalarMul(z, z), scalarPow(z, j))
		for i := 0; i < n; i++ {
			idx := j*n + i
			combinedExp[idx] = scalarAdd(scalarMul(z, yPowers[idx]), scalarMul(offset, twoPowers[i]))
		}
	}

	// p_point = A + x*S - z*ΣG + Σ(z*y^i + z^(2+j)*2^i)*H'_i - e_blinding*B_blinding + t_x*U,
	// the un-batched equivalent of the combined multiscalar check
	// range_proof/mod.rs's verify builds with a random batching
	// coefficient c; this module verifies the t(x) opening and the IPA
	// relation as two separate checks instead of one batched multiexp.
	pPoint := new(group.Point).Add(p.a, new(group.Point).Mul(p.s, x))
	pPoint.Sub(pPoint, new(group.Point).Mul(gSum, z))
	pPoint.Add(pPoint, group.MSM(combinedExp, hPrime))
	pPoint.Sub(pPoint, new(group.Point).Mul(pg.BBlinding, p.eBlinding))
	pPoint.Add(pPoint, new(group.Point).Mul(u, p.tx))

	return verifyIPA(tr, g, hPrime, u, pPoint, p.ipa)
}

// VerifySingle is Verify specialized to a single value commitment, the
// convenience wrapper spec.md §6's public API names directly
// (`proof.verify_single(V, gens, transcript, rng, n)`).
func (p *RangeProof) VerifySingle(v *group.Point, gens *Generators, label []byte, n int) error {
	return p.Verify([]*group.Point{v}, gens, label, n)
}

// switchGenerators replaces h_i with h_i * y^-i for i > 0 (h_0 is
// unchanged), the same rebasing bp.go's updateGenerators performs so the
// prover's literal r(x) (which still carries y^i) and the public H
// generators combine into a single fixed commitment independent of y's
// value.
func switchGenerators(h []*group.Point, y *big.Int) []*group.Point {
	n := len(h)
	result := make([]*group.Point, n)
	if n == 0 {
		return result
	}
	result[0] = h[0]
	yInv := scalarInverse(y)
	exp := yInv
	for i := 1; i < n; i++ {
		result[i] = new(group.Point).Mul(h[i], exp)
		exp = scalarMul(exp, yInv)
	}
	return result
}

// delta computes δ(y,z) = (z - z^2)·<1^(nm), y^(nm)> - Σ_{j=0}^{m-1}
// z^(3+j)·<1^n, 2^n>, the constant term every verifier must add back into
// the t(x) commitment check, generalizing bp.go's single-party delta
// across m aggregated statements (each contributing its own z^(3+j)
// correction instead of the single z^3 term bp.go computes).
func delta(n, m int, y, z *big.Int) *big.Int {
	nm := n * m
	sumY := sumOfPowers(y, nm)
	sumTwo := sumOfPowers(big.NewInt(2), n)

	zz := scalarMul(z, z)
	term1 := scalarMul(scalarSub(z, zz), sumY)

	sumZ3 := big.NewInt(0)
	z3 := scalarMul(zz, z)
	for j := 0; j < m; j++ {
		sumZ3 = scalarAdd(sumZ3, scalarMul(z3, scalarPow(z, j)))
	}
	term2 := scalarMul(sumZ3, sumTwo)

	return scalarSub(term1, term2)
}

func sumOfPowers(x *big.Int, n int) *big.Int {
	acc := big.NewInt(0)
	cur := big.NewInt(1)
	for i := 0; i < n; i++ {
		acc = scalarAdd(acc, cur)
		cur = scalarMul(cur, x)
	}
	return acc
}

// ToBytes serializes the proof as a flat concatenation of 32-byte
// compressed points and canonical scalars with no framing, exactly the
// layout spec.md §6 mandates: A, S, T1, T2, t_x, t_x_blinding, e_blinding,
// then the IPA's L/R point pairs (one pair per round), then the IPA's
// final a, b scalars. V is deliberately absent — spec.md §3 treats it as
// external to the proof — so total length is 32*(7 + 2*rounds + 2).
func (p *RangeProof) ToBytes() []byte {
	rounds := len(p.ipa.L)

	buf := make([]byte, 0, 32*(9+2*rounds))
	buf = append(buf, p.a.Compress()...)
	buf = append(buf, p.s.Compress()...)
	buf = append(buf, p.t1.Compress()...)
	buf = append(buf, p.t2.Compress()...)
	buf = append(buf, scalarCanonicalBytes(p.tx)...)
	buf = append(buf, scalarCanonicalBytes(p.txBlinding)...)
	buf = append(buf, scalarCanonicalBytes(p.eBlinding)...)
	for i := 0; i < rounds; i++ {
		buf = append(buf, p.ipa.L[i].Compress()...)
		buf = append(buf, p.ipa.R[i].Compress()...)
	}
	buf = append(buf, scalarCanonicalBytes(p.ipa.A)...)
	buf = append(buf, scalarCanonicalBytes(p.ipa.B)...)
	return buf
}

// FromBytes parses the wire format ToBytes produces, rejecting truncated
// input, non-canonical scalar encodings, and point encodings that do not
// decode to a valid ristretto255 element. The round count k is not framed
// explicitly; it falls out of the total length, per spec.md §6's decoder
// rules: the length must be a multiple of 32, at least 7*32, and the
// trailing IPA section's length must be 32*(2k+2) for some k >= 0.
func FromBytes(b []byte) (*RangeProof, error) {
	if len(b)%32 != 0 {
		return nil, newError(FormatError, "range proof length %d is not a multiple of 32", len(b))
	}
	if len(b) < 7*32 {
		return nil, newError(FormatError, "range proof length %d is below the minimum %d", len(b), 7*32)
	}
	ipaSection := len(b) - 7*32
	if ipaSection%64 != 0 {
		return nil, newError(FormatError, "IPA section length %d is not 32*(2k+2)", ipaSection)
	}
	rounds := ipaSection/64 - 1
	if rounds < 0 {
		return nil, newError(FormatError, "range proof missing final a, b scalars")
	}

	r := &byteReader{b: b}

	a, err := r.point()
	if err != nil {
		return nil, err
	}
	s, err := r.point()
	if err != nil {
		return nil, err
	}
	t1, err := r.point()
	if err != nil {
		return nil, err
	}
	t2, err := r.point()
	if err != nil {
		return nil, err
	}
	tx, err := r.scalar()
	if err != nil {
		return nil, err
	}
	txBlinding, err := r.scalar()
	if err != nil {
		return nil, err
	}
	eBlinding, err := r.scalar()
	if err != nil {
		return nil, err
	}

	ipa := &IPAProof{L: make([]*group.Point, rounds), R: make([]*group.Point, rounds)}
	for i := 0; i < rounds; i++ {
		l, err := r.point()
		if err != nil {
			return nil, err
		}
		rr, err := r.point()
		if err != nil {
			return nil, err
		}
		ipa.L[i] = l
		ipa.R[i] = rr
	}
	ipa.A, err = r.scalar()
	if err != nil {
		return nil, err
	}
	ipa.B, err = r.scalar()
	if err != nil {
		return nil, err
	}
	if !r.exhausted() {
		return nil, newError(FormatError, "trailing bytes after range proof")
	}

	return &RangeProof{
		a: a, s: s, t1: t1, t2: t2,
		tx: tx, txBlinding: txBlinding, eBlinding: eBlinding,
		ipa: ipa,
	}, nil
}

type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) point() (*group.Point, error) {
	if len(r.b)-r.pos < 32 {
		return nil, newError(FormatError, "truncated point")
	}
	pt, err := group.Decompress(r.b[r.pos : r.pos+32])
	if err != nil {
		return nil, newError(FormatError, "%v", err)
	}
	r.pos += 32
	return pt, nil
}

func (r *byteReader) scalar() (*big.Int, error) {
	if len(r.b)-r.pos < 32 {
		return nil, newError(FormatError, "truncated scalar")
	}
	s, err := scalarFromCanonicalBytes(r.b[r.pos : r.pos+32])
	if err != nil {
		return nil, err
	}
	r.pos += 32
	return s, nil
}

func (r *byteReader) exhausted() bool { return r.pos == len(r.b) }
