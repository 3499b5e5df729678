package upstream

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// nanoidAlphabet is the 64-character alphabet the upstream web client uses
// for nonces and device suffixes. Its length is a power of two, so masking
// a random byte to 6 bits indexes it without modulo bias.
const nanoidAlphabet = "abcdefgh0ijkl1mno2pqrs3tuv4wxyz5ABCDEFGH6IJKL7MNO8PQRS9TUV-WXYZ_"

// NanoID returns a random identifier of the given length drawn from the
// upstream's nanoid alphabet.
func NanoID(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("upstream: crypto/rand read failed: " + err.Error())
	}

	var b strings.Builder
	b.Grow(length)
	for _, c := range buf {
		b.WriteByte(nanoidAlphabet[c&0x3f])
	}
	return b.String()
}

// NewDeviceID generates a fresh device identity in the upstream's format:
// a dashless UUIDv4 followed by an underscore and a 20-character nanoid.
// A new identity is generated for every gateway request; the upstream
// treats each as a distinct anonymous device.
func NewDeviceID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:]) + "_" + NanoID(20)
}
