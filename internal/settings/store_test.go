package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashoff_back_end/internal/models"
)

func TestMemoryStoreCreatesDefaultsOnFirstRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s, err := store.Get(ctx, "boutique.myshopify.com")
	require.NoError(t, err)

	assert.Equal(t, "boutique.myshopify.com", s.ShopID)
	assert.Equal(t, models.DefaultBackgroundColor, s.BackgroundColor)
	assert.Equal(t, models.DefaultBarText, s.BarText)
	assert.Equal(t, models.DefaultTimerDuration, s.TimerDuration)
	assert.True(t, s.IsActive)
	assert.True(t, s.RequireCartItems)
	assert.Empty(t, s.DiscountID)
}

func TestMemoryStoreSaveThenGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s, err := store.Get(ctx, "boutique.myshopify.com")
	require.NoError(t, err)
	s.BackgroundColor = "#123456"
	s.IsActive = false
	require.NoError(t, store.Save(ctx, "boutique.myshopify.com", s))

	got, err := store.Get(ctx, "boutique.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "#123456", got.BackgroundColor)
	assert.False(t, got.IsActive)
}

func TestMemoryStoreIsolatesShops(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a, err := store.Get(ctx, "a.myshopify.com")
	require.NoError(t, err)
	a.Emoji = "⚡"
	require.NoError(t, store.Save(ctx, "a.myshopify.com", a))

	b, err := store.Get(ctx, "b.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultEmoji, b.Emoji)
}

func TestGetMigratesLegacyBarText(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	legacy := models.DefaultShopSettings("boutique.myshopify.com")
	legacy.BarText = "Utilisez le code {code} pour -15% !"
	legacy.TimerDuration = 30
	require.NoError(t, store.Save(ctx, "boutique.myshopify.com", legacy))

	got, err := store.Get(ctx, "boutique.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBarText, got.BarText)
	assert.Equal(t, 15, got.TimerDuration)

	// la migration ne se rejoue pas
	got2, err := store.Get(ctx, "boutique.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, got.BarText, got2.BarText)
}

func TestApplyDiscountRecordOverwrites(t *testing.T) {
	s := models.DefaultShopSettings("boutique.myshopify.com")

	limit := 50
	expires := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	s.ApplyDiscountRecord(models.DiscountRecord{
		DiscountID:      "gid://shopify/DiscountCodeNode/1",
		Code:            "FIRST123",
		Percentage:      20,
		CreatedAt:       expires.Add(-2 * time.Hour),
		ExpiresAt:       &expires,
		OncePerCustomer: true,
		TotalUsageLimit: &limit,
	})

	require.NotNil(t, s.CurrentDiscountRecord())
	assert.Equal(t, "FIRST123", s.DiscountCode)
	assert.False(t, s.NoExpiry)

	// le suivant écrase tout, y compris les champs redevenus vides
	s.ApplyDiscountRecord(models.DiscountRecord{
		DiscountID:  "gid://shopify/DiscountAutomaticNode/2",
		Code:        "SECOND45",
		Percentage:  30,
		IsAutomatic: true,
	})

	assert.Equal(t, "SECOND45", s.DiscountCode)
	assert.True(t, s.NoExpiry)
	assert.Nil(t, s.DiscountExpiresAt)
	assert.Nil(t, s.TotalUsageLimit)
	assert.False(t, s.OncePerCustomer)
}

func TestCurrentDiscountRecordNilWhenNoneGenerated(t *testing.T) {
	s := models.DefaultShopSettings("boutique.myshopify.com")
	assert.Nil(t, s.CurrentDiscountRecord())
}
