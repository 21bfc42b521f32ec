package invitecode

import (
	"crypto/rand"
	"fmt"
)

// codeCharset deliberately omits lookalike characters (0/O, 1/I/l) since
// invite codes are shared out-of-band, often read aloud at a stable.
var codeCharset = []rune("ABCDEFGHJKMNPQRSTUVWXYZ23456789")

// DefaultLength matches the config default for invite code length.
const DefaultLength = 10

// Generate returns a random, URL-safe invite code of the requested length.
// Codes are generated once at request creation and never regenerated.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}

	out := make([]rune, length)
	for i, b := range buf {
		out[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(out), nil
}
