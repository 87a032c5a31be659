package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"flashoff_back_end/internal/models"
)

// Store - persistance des ShopSettings, un enregistrement par boutique.
// Get crée paresseusement les réglages par défaut à la première lecture.
type Store interface {
	Get(ctx context.Context, shop string) (models.ShopSettings, error)
	Save(ctx context.Context, shop string, settings models.ShopSettings) error
	Delete(ctx context.Context, shop string) error
}

func settingsKey(shop string) string {
	return "flashoff:settings:" + strings.TrimSpace(shop)
}

// RedisStore conserve les réglages en JSON dans Redis, clé par boutique
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, shop string) (models.ShopSettings, error) {
	if strings.TrimSpace(shop) == "" {
		return models.ShopSettings{}, fmt.Errorf("identifiant de boutique requis")
	}

	data, err := s.rdb.Get(ctx, settingsKey(shop)).Result()
	if err == redis.Nil {
		// première lecture : on crée les réglages par défaut
		defaults := models.DefaultShopSettings(shop)
		if saveErr := s.Save(ctx, shop, defaults); saveErr != nil {
			return models.ShopSettings{}, saveErr
		}
		log.Printf("✅ Réglages par défaut créés pour %s", shop)
		return defaults, nil
	}
	if err != nil {
		return models.ShopSettings{}, fmt.Errorf("lecture des réglages impossible: %w", err)
	}

	var settings models.ShopSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return models.ShopSettings{}, fmt.Errorf("réglages corrompus pour %s: %w", shop, err)
	}

	// migration de l'ancien texte {code}, une seule fois, à la lecture
	if settings.MigrateLegacyBarText() {
		if err := s.Save(ctx, shop, settings); err != nil {
			log.Printf("⚠️ Migration du texte de barre non sauvegardée pour %s: %v", shop, err)
		}
	}

	return settings, nil
}

func (s *RedisStore) Save(ctx context.Context, shop string, settings models.ShopSettings) error {
	if strings.TrimSpace(shop) == "" {
		return fmt.Errorf("identifiant de boutique requis")
	}
	settings.ShopID = strings.TrimSpace(shop)
	settings.UpdatedAt = time.Now()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("sérialisation des réglages impossible: %w", err)
	}
	if err := s.rdb.Set(ctx, settingsKey(shop), data, 0).Err(); err != nil {
		return fmt.Errorf("sauvegarde des réglages impossible: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, shop string) error {
	return s.rdb.Del(ctx, settingsKey(shop)).Err()
}

// MemoryStore - implémentation en mémoire pour les tests
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]models.ShopSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.ShopSettings)}
}

func (s *MemoryStore) Get(ctx context.Context, shop string) (models.ShopSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.data[shop]; ok {
		if settings.MigrateLegacyBarText() {
			s.data[shop] = settings
		}
		return settings, nil
	}
	defaults := models.DefaultShopSettings(shop)
	s.data[shop] = defaults
	return defaults, nil
}

func (s *MemoryStore) Save(ctx context.Context, shop string, settings models.ShopSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.ShopID = shop
	s.data[shop] = settings
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, shop string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, shop)
	return nil
}
