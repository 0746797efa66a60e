package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/arunika-studio/backend-arunika/internal/catalog"
	"github.com/arunika-studio/backend-arunika/internal/pricing"
)

func TestServiceCacheAside(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:  store,
		Cache:  catalog.NewCache(client, time.Minute),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Products(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.Len())

	// Subsequent reads come from the cache even when the store fails.
	store.fail = true
	second, err := svc.Products(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, second.Len())

	// Rates were never cached, so the failing store surfaces.
	_, err = svc.Rates(ctx)
	require.Error(t, err)
	store.fail = false

	rates, err := svc.Rates(ctx)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(150), rates.Resolve("premium_card"))

	// UpdateRates drops the cached table so the new amount is visible.
	require.NoError(t, svc.UpdateRates(ctx, map[string]pricing.Money{"premium_card": 175}))
	rates, err = svc.Rates(ctx)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(175), rates.Resolve("premium_card"))
}
