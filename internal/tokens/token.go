// Package tokens assigns collection tokens to new registrations and
// sends the confirmation email. It is invoked once per inserted row,
// either through the store's creation webhook or the background worker.
package tokens

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tokenMin  = 100000
	tokenSpan = 900000
)

// Generate draws a uniform 6-digit token in [100000, 999999] using the
// provided intn (returns a uniform int in [0, n)). Pass nil for a
// crypto-seeded draw.
func Generate(intn func(n int) int) string {
	if intn == nil {
		intn = cryptoIntn
	}
	return fmt.Sprintf("%06d", tokenMin+intn(tokenSpan))
}

func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand failing means the platform RNG is broken;
		// nothing sensible to degrade to.
		panic(err)
	}
	return int(v.Int64())
}
