// Package fairness implements the commit-reveal primitives and the seeded
// shuffle used to make every deal replayable by observers.
//
// Before a hand the server publishes commitment = HMAC-SHA256(secret, hand_id).
// At showdown it reveals the secret; anyone can recompute the commitment and
// replay the shuffle from seed = SHA-256(secret ":" hand_id). The shuffle PRNG
// therefore needs to be reproducible, not cryptographically strong: the
// commitment binds the seed before any card is visible.
package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/bits"
)

// GenerateSecret returns a fresh 32-byte server secret as 64 hex characters,
// derived from a cryptographically secure source.
func GenerateSecret() string {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:])
}

// ComputeCommitment returns hex(HMAC-SHA256(key=secret, msg=handID)).
func ComputeCommitment(secret, handID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(handID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyReveal reports whether a revealed (secret, handID) pair matches the
// commitment published at hand start.
func VerifyReveal(commitment, secret, handID string) bool {
	expect, err := hex.DecodeString(commitment)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(handID))
	return hmac.Equal(mac.Sum(nil), expect)
}

// SeedHex returns hex(SHA-256(secret ":" handID)), the 256-bit shuffle seed
// as stored in the audit log.
func SeedHex(secret, handID string) string {
	digest := sha256.Sum256([]byte(secret + ":" + handID))
	return hex.EncodeToString(digest[:])
}

// RNG is a xoshiro256** generator seeded from SHA-256(secret ":" handID).
//
// The algorithm is fixed so auditors can replay shuffles in any language:
//   - state s[0..3] = the digest's four 8-byte words, big-endian
//   - 16 outputs are discarded as warm-up
//   - each output is rotl(s[1]*5, 7)*9 followed by the standard
//     xoshiro256** state transition
type RNG struct {
	s [4]uint64
}

// New returns an RNG seeded for the given hand.
func New(secret, handID string) *RNG {
	digest := sha256.Sum256([]byte(secret + ":" + handID))

	r := &RNG{}
	for i := 0; i < 4; i++ {
		r.s[i] = binary.BigEndian.Uint64(digest[i*8 : (i+1)*8])
	}
	if r.s[0]|r.s[1]|r.s[2]|r.s[3] == 0 {
		// xoshiro must not start from the all-zero state
		r.s[0] = 1
	}
	for i := 0; i < 16; i++ {
		r.Uint64()
	}
	return r
}

// Uint64 returns the next output of the generator.
func (r *RNG) Uint64() uint64 {
	result := bits.RotateLeft64(r.s[1]*5, 7) * 9

	t := r.s[1] << 17
	r.s[2] ^= r.s[0]
	r.s[3] ^= r.s[1]
	r.s[1] ^= r.s[2]
	r.s[0] ^= r.s[3]
	r.s[2] ^= t
	r.s[3] = bits.RotateLeft64(r.s[3], 45)

	return result
}

// Intn returns an integer in [0, n). Draws reduce by modulo; the tiny bias is
// irrelevant for a 52-card shuffle and keeps the replay algorithm one line.
func (r *RNG) Intn(n int) int {
	return int(r.Uint64() % uint64(n))
}

// Shuffle permutes items in place with a Fisher-Yates walk from the tail,
// j = Intn(i+1) at each step.
func Shuffle[T any](r *RNG, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
