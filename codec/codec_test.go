package codec

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func never(context.Context, string) (bool, error) { return false, nil }

func TestGenerateShape(t *testing.T) {
	code, err := Generate(context.Background(), never)
	require.NoError(t, err)
	require.Len(t, code, 9)
	require.Equal(t, byte('-'), code[4])

	for _, c := range strings.ReplaceAll(code, "-", "") {
		require.Contains(t, alphabet, string(c), "code %s uses a character outside the alphabet", code)
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	code, err := Generate(context.Background(), exists)
	require.NoError(t, err)
	require.NotEmpty(t, code)
	require.Equal(t, 3, calls)
}

func TestGenerateGivesUpEventually(t *testing.T) {
	always := func(context.Context, string) (bool, error) { return true, nil }

	_, err := Generate(context.Background(), always)
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "AB2C-3DEF", Normalize("  ab2c-3def "))
	require.Equal(t, "AB2C-3DEF", Normalize("ab2c 3def"))
	require.Equal(t, "AB2C-3DEF", Normalize("AB2C3DEF"))
	// Wrong-length input is cleaned but not regrouped.
	require.Equal(t, "ABC", Normalize(" abc "))
}

func TestGenerateNormalizeRoundTrip(t *testing.T) {
	code, err := Generate(context.Background(), never)
	require.NoError(t, err)
	require.Equal(t, code, Normalize(strings.ToLower(code)))
	require.Equal(t, code, Normalize(strings.ReplaceAll(code, "-", " ")))
}
