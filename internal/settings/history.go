package settings

import (
	"context"
	"log"
	"time"

	"github.com/gocql/gocql"

	"flashoff_back_end/internal/models"
)

// ScyllaHistory archive chaque remise générée dans ScyllaDB. L'historique est
// purement consultatif : une écriture qui échoue ne bloque jamais la génération.
type ScyllaHistory struct {
	session *gocql.Session
}

func NewScyllaHistory(session *gocql.Session) *ScyllaHistory {
	return &ScyllaHistory{session: session}
}

// Record insère une ligne d'historique pour la boutique
func (h *ScyllaHistory) Record(ctx context.Context, entry models.DiscountHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = gocql.TimeUUID().String()
	}

	var expiresAt time.Time
	if entry.ExpiresAt != nil {
		expiresAt = *entry.ExpiresAt
	}

	query := `
		INSERT INTO discount_history (
			shop_id, id, code, percentage, discount_id,
			is_automatic, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	return h.session.Query(query,
		entry.ShopID, entry.ID, entry.Code, entry.Percentage, entry.DiscountID,
		entry.IsAutomatic, entry.CreatedAt, expiresAt,
	).WithContext(ctx).Exec()
}

// Recent retourne les dernières remises générées pour la boutique, les plus
// récentes d'abord (clustering sur created_at DESC)
func (h *ScyllaHistory) Recent(ctx context.Context, shop string, limit int) ([]models.DiscountHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, code, percentage, discount_id, is_automatic, created_at, expires_at
		FROM discount_history WHERE shop_id = ? LIMIT ?
	`

	iter := h.session.Query(query, shop, limit).WithContext(ctx).Iter()

	var entries []models.DiscountHistoryEntry
	var entry models.DiscountHistoryEntry
	var expiresAt time.Time
	for iter.Scan(&entry.ID, &entry.Code, &entry.Percentage, &entry.DiscountID,
		&entry.IsAutomatic, &entry.CreatedAt, &expiresAt) {
		entry.ShopID = shop
		entry.ExpiresAt = nil
		if !expiresAt.IsZero() {
			t := expiresAt
			entry.ExpiresAt = &t
		}
		entries = append(entries, entry)
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CleanupExpired supprime de l'historique les remises déjà expirées.
// Retourne le nombre de lignes supprimées.
func (h *ScyllaHistory) CleanupExpired(ctx context.Context, shop string, now time.Time) (int, error) {
	query := `
		SELECT id, created_at, expires_at
		FROM discount_history WHERE shop_id = ?
	`

	iter := h.session.Query(query, shop).WithContext(ctx).Iter()

	type key struct {
		id        string
		createdAt time.Time
	}
	var expired []key
	var id string
	var createdAt, expiresAt time.Time
	for iter.Scan(&id, &createdAt, &expiresAt) {
		if !expiresAt.IsZero() && expiresAt.Before(now) {
			expired = append(expired, key{id: id, createdAt: createdAt})
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	deleted := 0
	for _, k := range expired {
		err := h.session.Query(
			`DELETE FROM discount_history WHERE shop_id = ? AND created_at = ? AND id = ?`,
			shop, k.createdAt, k.id,
		).WithContext(ctx).Exec()
		if err != nil {
			log.Printf("⚠️ Suppression historique impossible (%s): %v", k.id, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}

// Erase efface tout l'historique d'une boutique (demande RGPD shop/redact)
func (h *ScyllaHistory) Erase(ctx context.Context, shop string) error {
	return h.session.Query(
		`DELETE FROM discount_history WHERE shop_id = ?`, shop,
	).WithContext(ctx).Exec()
}
