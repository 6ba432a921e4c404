package utils

import (
	cryptoRand "crypto/rand"
	"encoding/hex"
)

// TokenHex returns a hex string of n random bytes from crypto/rand.
func TokenHex(n int) string {
	b := make([]byte, n)
	_, err := cryptoRand.Read(b)
	if err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
