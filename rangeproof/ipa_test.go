package rangeproof

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/oddlane/bulletproofs/group"
	"github.com/oddlane/bulletproofs/transcript"
)

func randomPoints(n int) []*group.Point {
	pts := make([]*group.Point, n)
	for i := range pts {
		pts[i] = group.RandomPoint(rand.Reader)
	}
	return pts
}

func randomVector(n int) []*big.Int {
	v := make([]*big.Int, n)
	for i := range v {
		v[i] = RandomScalar(rand.Reader)
	}
	return v
}

func TestIPARoundTrip(t *testing.T) {
	n := 8
	g := randomPoints(n)
	h := randomPoints(n)
	u := group.RandomPoint(rand.Reader)

	a := randomVector(n)
	b := randomVector(n)

	c := innerProduct(a, b)
	p := group.MSM(a, g)
	p.Add(p, group.MSM(b, h))
	p.Add(p, new(group.Point).Mul(u, c))

	proveTr := transcript.New([]byte("ipa-test"))
	proof := proveIPA(proveTr, g, h, u, a, b)

	verifyTr := transcript.New([]byte("ipa-test"))
	if err := verifyIPA(verifyTr, g, h, u, p, proof); err != nil {
		t.Fatalf("verifyIPA: %v", err)
	}
}

func TestIPARejectsTamperedProof(t *testing.T) {
	n := 4
	g := randomPoints(n)
	h := randomPoints(n)
	u := group.RandomPoint(rand.Reader)

	a := randomVector(n)
	b := randomVector(n)

	c := innerProduct(a, b)
	p := group.MSM(a, g)
	p.Add(p, group.MSM(b, h))
	p.Add(p, new(group.Point).Mul(u, c))

	proveTr := transcript.New([]byte("ipa-test"))
	proof := proveIPA(proveTr, g, h, u, a, b)
	proof.A = scalarAdd(proof.A, big.NewInt(1))

	verifyTr := transcript.New([]byte("ipa-test"))
	if err := verifyIPA(verifyTr, g, h, u, p, proof); err == nil {
		t.Fatalf("expected verification failure on tampered proof")
	}
}

func TestIPARejectsWrongTranscript(t *testing.T) {
	n := 4
	g := randomPoints(n)
	h := randomPoints(n)
	u := group.RandomPoint(rand.Reader)

	a := randomVector(n)
	b := randomVector(n)

	c := innerProduct(a, b)
	p := group.MSM(a, g)
	p.Add(p, group.MSM(b, h))
	p.Add(p, new(group.Point).Mul(u, c))

	proveTr := transcript.New([]byte("ipa-test"))
	proof := proveIPA(proveTr, g, h, u, a, b)

	verifyTr := transcript.New([]byte("different-label"))
	if err := verifyIPA(verifyTr, g, h, u, p, proof); err == nil {
		t.Fatalf("expected verification failure under a mismatched transcript label")
	}
}
