package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// FingerprintLen is the number of hex characters loaders put in their source URLs.
const FingerprintLen = 8

func SHA256(input string) string {
	return SHA256Bytes([]byte(input))
}

func SHA256Bytes(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

// SHA256Reader hashes everything r yields without buffering it.
func SHA256Reader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint returns the first n hex characters of the SHA256 of content, or the full
// digest when n is out of range.
func Fingerprint(content []byte, n int) string {
	sum := SHA256Bytes(content)
	if n <= 0 || n > len(sum) {
		return sum
	}
	return sum[:n]
}
