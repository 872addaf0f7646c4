// Package receipt issues human-facing booking reference numbers.
//
// Uniqueness is enforced by the storage layer (a unique index on
// receipt_number), not by probing before use: the caller attempts the
// insert with a candidate and asks for a fresh one on a duplicate-key
// rejection, at most MaxAttempts times.
package receipt

import (
	"crypto/rand"
	"fmt"
	"time"
)

// alphabet excludes easily-confused characters (0/O, 1/I/L) so the
// reference survives being read over the phone.
const alphabet = "23456789ABCDEFGHJKMNPQRSTVWXYZ"

const suffixLength = 6

type Issuer struct {
	prefix      string
	maxAttempts int
}

func NewIssuer(prefix string, maxAttempts int) *Issuer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Issuer{
		prefix:      prefix,
		maxAttempts: maxAttempts,
	}
}

// Candidate returns a fresh receipt number candidate, e.g.
// "DSN-20260901-K7PM2X". The date prefix aids support lookups; the
// crypto-random suffix leaks no booking volume.
func (i *Issuer) Candidate(now time.Time) (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate receipt suffix: %w", err)
	}
	for idx, b := range buf {
		buf[idx] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", i.prefix, now.UTC().Format("20060102"), string(buf)), nil
}

// MaxAttempts bounds how many candidates a caller may try before giving
// up with a retryable conflict.
func (i *Issuer) MaxAttempts() int {
	return i.maxAttempts
}
