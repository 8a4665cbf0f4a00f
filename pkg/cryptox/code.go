package cryptox

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// codeSecretSize is the HMAC key size recommended by RFC 4226.
const codeSecretSize = 20

// GenerateNumericCode returns a fresh one-time code of the given number of
// digits (6 or 8). The code is an HOTP value computed over a random secret and
// a random counter that are both discarded, so every call is independent.
func GenerateNumericCode(digits int) (string, error) {
	var d otp.Digits
	switch digits {
	case 6:
		d = otp.DigitsSix
	case 8:
		d = otp.DigitsEight
	default:
		return "", fmt.Errorf("unsupported code length %d", digits)
	}

	buf := make([]byte, codeSecretSize+8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate code entropy: %w", err)
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:codeSecretSize])
	counter := binary.BigEndian.Uint64(buf[codeSecretSize:])

	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    d,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return code, nil
}
