package group

import (
	"math/big"
	"testing"
)

func TestBaseAndIdentity(t *testing.T) {
	b := Base()
	if b.IsIdentity() {
		t.Fatalf("generator should not be the identity")
	}
	id := Identity()
	if !id.IsIdentity() {
		t.Fatalf("Identity() should be the identity element")
	}
}

func TestMulBaseMatchesMul(t *testing.T) {
	s := big.NewInt(12345)
	lhs := new(Point).MulBase(s)
	rhs := new(Point).Mul(Base(), s)
	if !lhs.IsEqual(rhs) {
		t.Fatalf("s*B via MulBase and Mul(Base(), s) disagree")
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	a := new(Point).MulBase(big.NewInt(7))
	b := new(Point).MulBase(big.NewInt(11))

	sum := new(Point).Add(a, b)
	back := new(Point).Sub(sum, b)

	if !back.IsEqual(a) {
		t.Fatalf("(a+b)-b should equal a")
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	p := new(Point).MulBase(big.NewInt(42))
	b := p.Compress()
	if len(b) != 32 {
		t.Fatalf("expected 32-byte compressed point, got %d", len(b))
	}
	q, err := Decompress(b)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !p.IsEqual(q) {
		t.Fatalf("round-tripped point does not match original")
	}
}

func TestDecompressRejectsWrongLength(t *testing.T) {
	if _, err := Decompress(make([]byte, 31)); err == nil {
		t.Fatalf("expected error decompressing a short buffer")
	}
}

func TestHashToPointDeterministic(t *testing.T) {
	a := HashToPoint("g0", "bulletproofs-generators")
	b := HashToPoint("g0", "bulletproofs-generators")
	if !a.IsEqual(b) {
		t.Fatalf("HashToPoint must be deterministic for the same inputs")
	}
	c := HashToPoint("g1", "bulletproofs-generators")
	if a.IsEqual(c) {
		t.Fatalf("different labels should hash to different points")
	}
}

func TestMSM(t *testing.T) {
	scalars := []*big.Int{big.NewInt(3), big.NewInt(5)}
	p0 := new(Point).MulBase(big.NewInt(1))
	p1 := HashToPoint("p1", "test")
	points := []*Point{p0, p1}

	got := MSM(scalars, points)

	want := new(Point).Add(
		new(Point).Mul(p0, scalars[0]),
		new(Point).Mul(p1, scalars[1]),
	)
	if !got.IsEqual(want) {
		t.Fatalf("MSM result does not match naive accumulation")
	}
}
