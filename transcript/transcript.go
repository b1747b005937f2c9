// Package transcript implements the append-only Fiat-Shamir transcript
// that drives every challenge in the aggregated range-proof protocol: the
// prover and the verifier append identical data, in identical order, and
// derive identical challenges from it. The underlying sponge is
// github.com/zeebo/blake3, used the same way luxfi/threshold's FROST round
// derives per-round nonces from a keyed blake3 XOF
// (protocols/frost/sign/round1.go) — write domain-separated, length-framed
// data into the hasher, then read challenge bytes out of its digest.
package transcript

import (
	"encoding/binary"
	"math/big"

	"github.com/zeebo/blake3"
)

// Transcript is a running Fiat-Shamir transcript. The zero value is not
// usable; construct one with New.
type Transcript struct {
	h *blake3.Hasher
}

// New starts a transcript seeded with a caller-supplied application label,
// e.g. b"AggregatedRangeProofTest". Two transcripts started with the same
// label that receive the same sequence of appends produce the same
// challenges; a different label changes every subsequent challenge.
func New(label []byte) *Transcript {
	t := &Transcript{h: blake3.New()}
	t.AppendMessage("bulletproofs-transcript-init", label)
	return t
}

// AppendMessage appends a label and an arbitrary byte string to the
// transcript. Both the label and a big-endian length prefix of data are
// mixed in, so that two different (label, data) splits whose
// concatenation would otherwise collide cannot produce the same transcript
// state.
func (t *Transcript) AppendMessage(label string, data []byte) {
	writeFramed(t.h, []byte(label))
	writeFramed(t.h, data)
}

// AppendScalar appends a scalar under a label, using its canonical 32-byte
// big-endian encoding.
func (t *Transcript) AppendScalar(label string, s *big.Int) {
	t.AppendMessage(label, scalarBytes(s))
}

// AppendPoint appends an already-compressed group element under a label.
func (t *Transcript) AppendPoint(label string, compressed []byte) {
	t.AppendMessage(label, compressed)
}

// ChallengeScalar draws a challenge scalar bound to everything appended so
// far (and to label, which is itself appended before the draw). The
// transcript's hash state is cloned before reading the digest, so the
// hasher remains usable for further appends and further challenges.
func (t *Transcript) ChallengeScalar(label string, order *big.Int) *big.Int {
	writeFramed(t.h, []byte(label))

	digest := t.h.Clone().Digest()
	wide := make([]byte, 64)
	if _, err := digest.Read(wide); err != nil {
		// blake3's XOF reader never returns an error for a bounded read.
		panic("transcript: digest read failed: " + err.Error())
	}

	challenge := new(big.Int).SetBytes(wide)
	challenge.Mod(challenge, order)
	return challenge
}

// RangeProofDomainSep seeds the transcript with the protocol name and its
// dimensions, so that replaying a proof transcript against a different
// (n, m) or a differently-labeled protocol fails to reproduce challenges.
func (t *Transcript) RangeProofDomainSep(n, m int) {
	t.AppendMessage("dom-sep", []byte("bulletproofs-aggregated-range-proof"))
	t.AppendMessage("n", uint64Bytes(uint64(n)))
	t.AppendMessage("m", uint64Bytes(uint64(m)))
}

func writeFramed(h *blake3.Hasher, data []byte) {
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(data)))
	_, _ = h.Write(length[:])
	_, _ = h.Write(data)
}

func uint64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func scalarBytes(s *big.Int) []byte {
	b := make([]byte, 32)
	s.FillBytes(b)
	return b
}
