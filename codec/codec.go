// Package codec issues and normalizes human-presentable redemption codes.
package codec

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"

	"goflare.io/redemption/errs"
)

// alphabet excludes 0/O, 1/I/L and vowels that form words, so codes survive
// being read over a phone or typed from a printed voucher.
const alphabet = "23456789ABCDEFGHJKMNPQRSTVWXYZ"

const (
	groupLen    = 4
	groupCount  = 2
	maxAttempts = 5
)

// Exists reports whether a candidate code is already taken.
type Exists func(ctx context.Context, code string) (bool, error)

// Generate produces a normalized unique code of the form XXXX-XXXX,
// retrying on collision up to a small bound.
func Generate(ctx context.Context, exists Exists) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := random()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code collision: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique code after %d attempts: %w", maxAttempts, errs.ErrConflict)
}

func random() (string, error) {
	buf := make([]byte, groupLen*groupCount)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var b strings.Builder
	for i, c := range buf {
		if i > 0 && i%groupLen == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String(), nil
}

// Normalize maps user input to canonical form: trimmed, uppercased, with
// spaces and hyphens stripped and canonical grouping reapplied. Comparison is
// therefore case- and separator-insensitive.
func Normalize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(raw)))

	if len(cleaned) != groupLen*groupCount {
		return cleaned
	}

	var b strings.Builder
	for i := 0; i < len(cleaned); i += groupLen {
		if i > 0 {
			b.WriteByte('-')
		}
		b.WriteString(cleaned[i : i+groupLen])
	}
	return b.String()
}
