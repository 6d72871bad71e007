package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Fingerprint keys a request by prompt and temperature. Any change to the
// prompt text, including injected history, yields a different key.
func Fingerprint(prompt string, temperature float32) string {
	h := sha256.Sum256([]byte(prompt + "_" + strconv.FormatFloat(float64(temperature), 'f', -1, 32)))
	return hex.EncodeToString(h[:])
}
