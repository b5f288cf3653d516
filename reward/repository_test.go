package reward

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/ignite"
)

func TestGetFromPoolHandsOutDistinctScratch(t *testing.T) {
	repo, err := NewRepository(nil, zap.NewNop(), nil, ignite.NewManager())
	require.NoError(t, err)
	r := repo.(*repository)

	ctx := context.Background()
	first, releaseFirst, err := r.getFromPool(ctx)
	require.NoError(t, err)
	second, releaseSecond, err := r.getFromPool(ctx)
	require.NoError(t, err)
	require.NotSame(t, first, second)

	releaseFirst()
	releaseSecond()

	third, release, err := r.getFromPool(ctx)
	require.NoError(t, err)
	defer release()
	require.NotNil(t, third)
}
