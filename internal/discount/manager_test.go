package discount

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashoff_back_end/internal/models"
	"flashoff_back_end/internal/settings"
	"flashoff_back_end/internal/shopify"
)

type fakeAdmin struct {
	codeInput      *shopify.CodeDiscountInput
	automaticInput *shopify.AutomaticDiscountInput
	createErr      error
	nodes          []shopify.DiscountNode
	listErr        error
}

func (f *fakeAdmin) CreateCodeDiscount(ctx context.Context, in shopify.CodeDiscountInput) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.codeInput = &in
	return "gid://shopify/DiscountCodeNode/111", nil
}

func (f *fakeAdmin) CreateAutomaticDiscount(ctx context.Context, in shopify.AutomaticDiscountInput) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.automaticInput = &in
	return "gid://shopify/DiscountAutomaticNode/222", nil
}

func (f *fakeAdmin) ListFlashSaleDiscounts(ctx context.Context) ([]shopify.DiscountNode, error) {
	return f.nodes, f.listErr
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, shop string) (models.ShopSettings, error) {
	return models.ShopSettings{}, errors.New("redis indisponible")
}

func (failingStore) Save(ctx context.Context, shop string, s models.ShopSettings) error {
	return errors.New("redis indisponible")
}

type recordingHistory struct {
	entries []models.DiscountHistoryEntry
}

func (h *recordingHistory) Record(ctx context.Context, entry models.DiscountHistoryEntry) error {
	h.entries = append(h.entries, entry)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestGenerateAutomaticDiscount(t *testing.T) {
	admin := &fakeAdmin{}
	store := settings.NewMemoryStore()
	history := &recordingHistory{}
	mgr := NewManager(admin, store, history,
		WithNow(fixedNow),
		WithCodeGenerator(func() string { return "ABCD1234" }),
	)

	rec, err := mgr.Generate(context.Background(), "boutique.myshopify.com", models.DiscountRequest{
		Percentage:     20,
		ExpiryDuration: 2,
		ExpiryUnit:     models.ExpiryUnitHours,
	})
	require.NoError(t, err)

	assert.Equal(t, "gid://shopify/DiscountAutomaticNode/222", rec.DiscountID)
	assert.Equal(t, "ABCD1234", rec.Code)
	assert.Equal(t, 20, rec.Percentage)
	assert.True(t, rec.IsAutomatic)
	require.NotNil(t, rec.ExpiresAt)
	assert.Equal(t, fixedNow().Add(2*time.Hour), *rec.ExpiresAt)

	// côté Shopify : remise automatique, jamais de code
	require.NotNil(t, admin.automaticInput)
	assert.Nil(t, admin.codeInput)
	assert.Equal(t, fmt.Sprintf("Flash Sale - 20%% Off (%d)", fixedNow().UnixMilli()), admin.automaticInput.Title)

	// la remise devient la remise courante de la boutique
	s, err := store.Get(context.Background(), "boutique.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, "ABCD1234", s.DiscountCode)
	assert.Equal(t, 20, s.DiscountPercentage)
	assert.False(t, s.NoExpiry)

	// et elle est archivée
	require.Len(t, history.entries, 1)
	assert.Equal(t, "boutique.myshopify.com", history.entries[0].ShopID)
}

func TestGenerateOncePerCustomerCreatesCodeDiscount(t *testing.T) {
	admin := &fakeAdmin{}
	store := settings.NewMemoryStore()
	limit := 100
	mgr := NewManager(admin, store, nil,
		WithNow(fixedNow),
		WithCodeGenerator(func() string { return "XY12AB34" }),
	)

	rec, err := mgr.Generate(context.Background(), "boutique.myshopify.com", models.DiscountRequest{
		Percentage:      30,
		NoExpiry:        true,
		OncePerCustomer: true,
		TotalUsageLimit: &limit,
	})
	require.NoError(t, err)

	assert.False(t, rec.IsAutomatic)
	assert.Nil(t, rec.ExpiresAt)

	require.NotNil(t, admin.codeInput)
	assert.Nil(t, admin.automaticInput)
	assert.Equal(t, "XY12AB34", admin.codeInput.Code)
	assert.True(t, admin.codeInput.AppliesOncePerCustomer)
	require.NotNil(t, admin.codeInput.UsageLimit)
	assert.Equal(t, 100, *admin.codeInput.UsageLimit)
	assert.Nil(t, admin.codeInput.EndsAt)
}

func TestGenerateValidation(t *testing.T) {
	mgr := NewManager(&fakeAdmin{}, settings.NewMemoryStore(), nil)

	cases := []struct {
		name  string
		req   models.DiscountRequest
		field string
	}{
		{"pourcentage trop bas", models.DiscountRequest{Percentage: 4, NoExpiry: true}, "percentage"},
		{"pourcentage trop haut", models.DiscountRequest{Percentage: 51, NoExpiry: true}, "percentage"},
		{"unité inconnue", models.DiscountRequest{Percentage: 20, ExpiryDuration: 1, ExpiryUnit: "weeks"}, "expiryUnit"},
		{"durée nulle", models.DiscountRequest{Percentage: 20, ExpiryUnit: models.ExpiryUnitHours}, "expiryDuration"},
		{"limite négative", models.DiscountRequest{Percentage: 20, NoExpiry: true, TotalUsageLimit: intPtr(-1)}, "totalUsageLimit"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.Generate(context.Background(), "boutique.myshopify.com", tc.req)
			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tc.field, valErr.Field)
		})
	}
}

func TestGenerateShopifyRefusal(t *testing.T) {
	admin := &fakeAdmin{createErr: &shopify.APIError{
		Message: "création refusée",
		UserErrors: []shopify.UserError{
			{Field: []string{"startsAt"}, Code: "INVALID", Message: "startsAt invalide"},
		},
	}}
	store := settings.NewMemoryStore()
	mgr := NewManager(admin, store, nil, WithNow(fixedNow))

	_, err := mgr.Generate(context.Background(), "boutique.myshopify.com", models.DiscountRequest{
		Percentage: 20, NoExpiry: true,
	})

	var extErr *ExternalServiceError
	require.ErrorAs(t, err, &extErr)
	require.Len(t, extErr.UserErrors, 1)
	assert.Equal(t, "startsAt invalide", extErr.UserErrors[0].Message)

	// rien ne doit être persisté localement après un refus
	s, getErr := store.Get(context.Background(), "boutique.myshopify.com")
	require.NoError(t, getErr)
	assert.Empty(t, s.DiscountID)
}

func TestGeneratePersistenceFailureIsWarning(t *testing.T) {
	admin := &fakeAdmin{}
	mgr := NewManager(admin, failingStore{}, nil, WithNow(fixedNow))

	rec, err := mgr.Generate(context.Background(), "boutique.myshopify.com", models.DiscountRequest{
		Percentage: 20, NoExpiry: true,
	})

	// la remise existe côté Shopify : elle est retournée malgré l'erreur
	var persErr *PersistenceError
	require.ErrorAs(t, err, &persErr)
	assert.NotEmpty(t, rec.DiscountID)
	assert.Equal(t, 20, rec.Percentage)
}

func TestCheckActivePicksNewestActive(t *testing.T) {
	older := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	admin := &fakeAdmin{nodes: []shopify.DiscountNode{
		{
			ID:     "gid://shopify/DiscountAutomaticNode/1",
			Title:  fmt.Sprintf("Flash Sale - 10%% Off (%d)", older.UnixMilli()),
			Status: "ACTIVE",
		},
		{
			ID:          "gid://shopify/DiscountAutomaticNode/2",
			Title:       fmt.Sprintf("Flash Sale - 25%% Off (%d)", newer.UnixMilli()),
			Status:      "ACTIVE",
			IsAutomatic: true,
		},
		{
			ID:     "gid://shopify/DiscountCodeNode/3",
			Title:  fmt.Sprintf("Flash Sale - 40%% Off (%d)", newer.Add(time.Hour).UnixMilli()),
			Status: "EXPIRED",
		},
	}}
	mgr := NewManager(admin, settings.NewMemoryStore(), nil)

	status, err := mgr.CheckActive(context.Background())
	require.NoError(t, err)

	assert.True(t, status.HasActiveDiscount)
	assert.Equal(t, "gid://shopify/DiscountAutomaticNode/2", status.DiscountID)
	assert.Equal(t, 25, status.Percentage)
	assert.True(t, status.IsAutomatic)
}

func TestCheckActiveNoneActive(t *testing.T) {
	admin := &fakeAdmin{nodes: []shopify.DiscountNode{
		{Title: "Flash Sale - 20% Off (1750000000000)", Status: "EXPIRED"},
	}}
	mgr := NewManager(admin, settings.NewMemoryStore(), nil)

	status, err := mgr.CheckActive(context.Background())
	require.NoError(t, err)
	assert.False(t, status.HasActiveDiscount)
	assert.Empty(t, status.DiscountID)
}

func TestCheckActiveCodeFallback(t *testing.T) {
	// pas de code sur le nœud ni dans le titre : un code d'affichage est
	// fabriqué pour que le storefront ait toujours quelque chose à montrer
	admin := &fakeAdmin{nodes: []shopify.DiscountNode{
		{Title: "Flash Sale - 20% Off (1750000000000)", Status: "ACTIVE"},
	}}
	mgr := NewManager(admin, settings.NewMemoryStore(), nil,
		WithCodeGenerator(func() string { return "GEN12345" }))

	status, err := mgr.CheckActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GEN12345", status.DiscountCode)
}

func TestIsDiscountActive(t *testing.T) {
	now := fixedNow()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, IsDiscountActive(nil, now))
	assert.True(t, IsDiscountActive(&models.DiscountRecord{}, now))
	assert.True(t, IsDiscountActive(&models.DiscountRecord{ExpiresAt: &future}, now))
	assert.False(t, IsDiscountActive(&models.DiscountRecord{ExpiresAt: &past}, now))
}

func TestGenerateDisplayCodeFormat(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, re, GenerateDisplayCode())
	}
}

func intPtr(v int) *int { return &v }
