package cache

import (
	"context"
	"encoding/json"
	"time"

	"flashoff_back_end/internal/database"
	"flashoff_back_end/internal/models"
)

const StatusCacheTTL = 30 * time.Second

func statusKey(shop string) string {
	return "flashoff:status:" + shop
}

// GetStatusFromCache récupère le dernier statut de remise connu pour la
// boutique, si la copie a moins de 30 secondes. L'admin rafraîchit son
// statut en boucle : pas besoin d'interroger Shopify à chaque fois.
func GetStatusFromCache(ctx context.Context, shop string) (*models.ActiveDiscountStatus, bool) {
	data, err := database.Redis.Get(ctx, statusKey(shop)).Result()
	if err != nil {
		return nil, false
	}
	var status models.ActiveDiscountStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, false
	}
	return &status, true
}

// SetStatusCache mémorise le statut retourné par Shopify
func SetStatusCache(ctx context.Context, shop string, status models.ActiveDiscountStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, statusKey(shop), data, StatusCacheTTL).Err()
}

// InvalidateStatusCache efface la copie après une génération : le prochain
// statut doit venir de Shopify
func InvalidateStatusCache(ctx context.Context, shop string) {
	database.Redis.Del(ctx, statusKey(shop))
}
