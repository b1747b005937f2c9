package rangeproof

import (
	"crypto/rand"
	"math/big"
	"testing"
)

func testGenerators(n, m int) *Generators {
	return NewGenerators(NewPedersenGenerators(), n, m)
}

func TestProveVerifySingle(t *testing.T) {
	gens := testGenerators(32, 1)
	blinding := RandomScalar(nil)

	proof, v, err := ProveSingle(gens, []byte("test-single"), 32, 1000, blinding)
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}
	if err := proof.VerifySingle(v, gens, []byte("test-single"), 32); err != nil {
		t.Fatalf("VerifySingle: %v", err)
	}
}

func TestProveVerifySingleBoundaryValues(t *testing.T) {
	gens := testGenerators(8, 1)
	for _, v := range []uint64{0, 1, 255} {
		blinding := RandomScalar(nil)
		proof, V, err := ProveSingle(gens, []byte("boundary"), 8, v, blinding)
		if err != nil {
			t.Fatalf("ProveSingle(%d): %v", v, err)
		}
		if err := proof.VerifySingle(V, gens, []byte("boundary"), 8); err != nil {
			t.Fatalf("Verify(%d): %v", v, err)
		}
	}
}

func TestProveVerifyAggregated(t *testing.T) {
	gens := testGenerators(16, 4)
	values := []uint64{5, 1000, 0, 65535}
	blindings := make([]*big.Int, len(values))
	for i := range blindings {
		blindings[i] = RandomScalar(nil)
	}

	proof, V, err := ProveMultiple(gens, []byte("aggregated"), 16, values, blindings)
	if err != nil {
		t.Fatalf("ProveMultiple: %v", err)
	}
	if err := proof.Verify(V, gens, []byte("aggregated"), 16); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsTamperedValue(t *testing.T) {
	gens := testGenerators(32, 1)
	blinding := RandomScalar(nil)

	proof, V, err := ProveSingle(gens, []byte("tamper"), 32, 100, blinding)
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}

	proof2, err := FromBytes(proof.ToBytes())
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	proof2.tx = scalarAdd(proof2.tx, big.NewInt(1))

	if err := proof2.VerifySingle(V, gens, []byte("tamper"), 32); err == nil {
		t.Fatalf("expected verification failure after tampering with t_x")
	}
}

func TestVerifyRejectsWrongLabel(t *testing.T) {
	gens := testGenerators(32, 1)
	blinding := RandomScalar(nil)

	proof, V, err := ProveSingle(gens, []byte("label-a"), 32, 100, blinding)
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}
	if err := proof.VerifySingle(V, gens, []byte("label-b"), 32); err == nil {
		t.Fatalf("expected verification failure under a different transcript label")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	gens := testGenerators(16, 2)
	values := []uint64{3, 70000 % (1 << 16)}
	blindings := []*big.Int{RandomScalar(nil), RandomScalar(nil)}

	proof, V, err := ProveMultiple(gens, []byte("wire"), 16, values, blindings)
	if err != nil {
		t.Fatalf("ProveMultiple: %v", err)
	}

	encoded := proof.ToBytes()
	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if err := decoded.Verify(V, gens, []byte("wire"), 16); err != nil {
		t.Fatalf("Verify(decoded): %v", err)
	}
}

// TestSerializationLengthMatchesSpec exercises spec.md §8's concrete
// scenarios: n=32,m=1 gives 32*(9+2*5)=608 bytes (log2(32*1)=5 IPA
// rounds); n=64,m=4 gives 32*(9+2*8)=800 bytes (log2(64*4)=8 rounds).
func TestSerializationLengthMatchesSpec(t *testing.T) {
	gens32 := testGenerators(32, 1)
	proof, _, err := ProveSingle(gens32, []byte("len-608"), 32, 1, big.NewInt(1))
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}
	if got, want := len(proof.ToBytes()), 32*(9+2*5); got != want {
		t.Fatalf("n=32,m=1 proof length = %d, want %d", got, want)
	}

	gens64 := testGenerators(64, 4)
	values := make([]uint64, 4)
	blindings := make([]*big.Int, 4)
	for i := range values {
		values[i] = uint64(i) * 12345
		blindings[i] = RandomScalar(nil)
	}
	aggProof, _, err := ProveMultiple(gens64, []byte("len-800"), 64, values, blindings)
	if err != nil {
		t.Fatalf("ProveMultiple: %v", err)
	}
	if got, want := len(aggProof.ToBytes()), 32*(9+2*8); got != want {
		t.Fatalf("n=64,m=4 proof length = %d, want %d", got, want)
	}
}

func TestFromBytesRejectsTruncatedInput(t *testing.T) {
	gens := testGenerators(8, 1)
	proof, _, err := ProveSingle(gens, []byte("truncate"), 8, 7, RandomScalar(nil))
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}
	encoded := proof.ToBytes()
	if _, err := FromBytes(encoded[:len(encoded)-1]); err == nil {
		t.Fatalf("expected error decoding truncated proof bytes")
	}
}

func TestFromBytesRejectsNonMultipleOf32(t *testing.T) {
	if _, err := FromBytes(make([]byte, 7*32+1)); err == nil {
		t.Fatalf("expected FormatError for non-multiple-of-32 length")
	}
}

func TestFromBytesRejectsTooShort(t *testing.T) {
	if _, err := FromBytes(make([]byte, 6*32)); err == nil {
		t.Fatalf("expected FormatError for length below 7*32")
	}
}

func TestProveMultipleRejectsBadBitsize(t *testing.T) {
	gens := testGenerators(32, 1)
	if _, _, err := ProveSingle(gens, []byte("bad-n"), 10, 1, RandomScalar(nil)); err == nil {
		t.Fatalf("expected InvalidBitsize error for n=10")
	} else if rpErr, ok := err.(*Error); !ok || rpErr.Kind != InvalidBitsize {
		t.Fatalf("expected InvalidBitsize, got %v", err)
	}
}

func TestProveMultipleRejectsMismatchedBlindingCount(t *testing.T) {
	gens := testGenerators(8, 2)
	_, _, err := ProveMultiple(gens, []byte("mismatch"), 8, []uint64{1, 2}, []*big.Int{RandomScalar(nil)})
	if err == nil {
		t.Fatalf("expected WrongNumBlindingFactors error")
	}
	if rpErr, ok := err.(*Error); !ok || rpErr.Kind != WrongNumBlindingFactors {
		t.Fatalf("expected WrongNumBlindingFactors, got %v", err)
	}
}

// TestSoundnessRejectsOutOfRangeValue exercises spec.md §8's soundness
// smoke test: a value outside [0, 2^n) still produces a proof (the
// prover never short-circuits on an out-of-range v), but that proof
// fails verification, because the bit-decomposition committed in A only
// ever covers v's low n bits while V commits to the full value.
func TestSoundnessRejectsOutOfRangeValue(t *testing.T) {
	gens := testGenerators(32, 1)
	blinding := RandomScalar(nil)

	v := uint64(1)<<64 - 1 // n=32, so this is far outside [0, 2^32).
	proof, V, err := ProveSingle(gens, []byte("soundness"), 32, v, blinding)
	if err != nil {
		t.Fatalf("ProveSingle: %v", err)
	}
	if err := proof.VerifySingle(V, gens, []byte("soundness"), 32); err == nil {
		t.Fatalf("expected VerificationError for a value outside [0, 2^32)")
	}
}

func TestDeltaMatchesDirectComputation(t *testing.T) {
	n, m := 4, 2
	y := big.NewInt(3)
	z := big.NewInt(5)

	got := delta(n, m, y, z)

	sumY := big.NewInt(0)
	yPow := big.NewInt(1)
	for i := 0; i < n*m; i++ {
		sumY = scalarAdd(sumY, yPow)
		yPow = scalarMul(yPow, y)
	}
	sum2 := big.NewInt(0)
	twoPow := big.NewInt(1)
	for i := 0; i < n; i++ {
		sum2 = scalarAdd(sum2, twoPow)
		twoPow = scalarMul(twoPow, big.NewInt(2))
	}

	zz := scalarMul(z, z)
	want := scalarMul(scalarSub(z, zz), sumY)
	z3 := scalarMul(zz, z)
	for j := 0; j < m; j++ {
		want = scalarSub(want, scalarMul(scalarMul(z3, scalarPow(z, j)), sum2))
	}

	if got.Cmp(want) != 0 {
		t.Fatalf("delta mismatch: got %s want %s", got, want)
	}
}

// TestReceiveTrustedSharesProducesVerifyingProof drives the full protocol
// in-process and checks that the proof ReceiveTrustedShares combines
// verifies, for the single-process-only fast path spec.md §4.5/§9 calls out.
func TestReceiveTrustedSharesProducesVerifyingProof(t *testing.T) {
	n, m := 8, 2
	gens := testGenerators(n, m)
	values := []uint64{3, 9}
	blindings := []*big.Int{RandomScalar(nil), RandomScalar(nil)}

	dealer, err := NewDealer(gens, []byte("trusted"), n, m)
	if err != nil {
		t.Fatalf("NewDealer: %v", err)
	}

	parties := make([]*PartyAwaitingValueChallenge, m)
	vcs := make([]*ValueCommitment, m)
	for j := 0; j < m; j++ {
		party, err := NewParty(gens, j, n, values[j], blindings[j])
		if err != nil {
			t.Fatalf("NewParty(%d): %v", j, err)
		}
		next, vc := party.AwaitingPosition().AssignPosition(rand.Reader)
		parties[j] = next
		vcs[j] = vc
	}

	dealerPC, valueChallenge, err := dealer.ReceiveValueCommitments(vcs)
	if err != nil {
		t.Fatalf("ReceiveValueCommitments: %v", err)
	}

	polyParties := make([]*PartyAwaitingPolyChallenge, m)
	pcs := make([]*PolyCommitment, m)
	for j, p := range parties {
		next, pc := p.ApplyChallenge(rand.Reader, valueChallenge)
		polyParties[j] = next
		pcs[j] = pc
	}

	dealerShares, polyChallenge, err := dealerPC.ReceivePolyCommitments(pcs)
	if err != nil {
		t.Fatalf("ReceivePolyCommitments: %v", err)
	}

	shares := make([]*ProofShare, m)
	for j, p := range polyParties {
		share, err := p.ApplyChallenge(polyChallenge)
		if err != nil {
			t.Fatalf("ApplyChallenge(%d): %v", j, err)
		}
		shares[j] = share
	}

	proof, V, err := dealerShares.ReceiveTrustedShares(rand.Reader, shares)
	if err != nil {
		t.Fatalf("ReceiveTrustedShares: %v", err)
	}
	if err := proof.Verify(V, gens, []byte("trusted"), n); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
