package popup

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"flashoff_back_end/internal/models"
)

// Clés de session du visiteur. Les noms sont partagés avec le snippet
// storefront et ne doivent pas changer.
const (
	keySessionStart = "flashoff_session_start"
	keyPopupShown   = "flashoff_popup_shown"
	keyDismissed    = "flashoff_popup_dismissed"
	keyDiscountData = "flashoff_discount_data"
	keyApplying     = "flashoff_discount_applying"
)

// SessionStore - état par visiteur, persistant entre les pages d'une même
// session de navigation. Les implémentations doivent tolérer un stockage
// vide ou corrompu : le popup préfère repartir de zéro plutôt que planter.
type SessionStore interface {
	SessionStart() (time.Time, bool)
	SetSessionStart(t time.Time)
	Shown() bool
	SetShown(v bool)
	Dismissed() bool
	SetDismissed(v bool)
	SavedDiscount() (models.ActiveDiscount, bool)
	SaveDiscount(d models.ActiveDiscount)
	Applying() bool
	SetApplying(v bool)
	Clear()
}

// MemorySessionStore - implémentation en mémoire, miroir du localStorage
// du navigateur. Utilisée par les tests et comme repli quand Redis est absent.
type MemorySessionStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]string)}
}

func (s *MemorySessionStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemorySessionStore) set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *MemorySessionStore) SessionStart() (time.Time, bool) {
	raw, ok := s.get(keySessionStart)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *MemorySessionStore) SetSessionStart(t time.Time) {
	s.set(keySessionStart, strconv.FormatInt(t.UnixMilli(), 10))
}

func (s *MemorySessionStore) Shown() bool {
	v, _ := s.get(keyPopupShown)
	return v == "true"
}

func (s *MemorySessionStore) SetShown(v bool) {
	s.set(keyPopupShown, strconv.FormatBool(v))
}

func (s *MemorySessionStore) Dismissed() bool {
	v, _ := s.get(keyDismissed)
	return v == "true"
}

func (s *MemorySessionStore) SetDismissed(v bool) {
	s.set(keyDismissed, strconv.FormatBool(v))
}

func (s *MemorySessionStore) SavedDiscount() (models.ActiveDiscount, bool) {
	raw, ok := s.get(keyDiscountData)
	if !ok || raw == "" {
		return models.ActiveDiscount{}, false
	}
	var d models.ActiveDiscount
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return models.ActiveDiscount{}, false
	}
	return d, true
}

func (s *MemorySessionStore) SaveDiscount(d models.ActiveDiscount) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.set(keyDiscountData, string(data))
}

func (s *MemorySessionStore) Applying() bool {
	v, _ := s.get(keyApplying)
	return v == "true"
}

func (s *MemorySessionStore) SetApplying(v bool) {
	s.set(keyApplying, strconv.FormatBool(v))
}

func (s *MemorySessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
}

// RedisSessionStore conserve l'état du visiteur dans un hash Redis, une
// entrée par visiteur, expirée après 24h d'inactivité. Toutes les erreurs
// Redis sont avalées : pour le storefront, une session illisible est une
// session vide.
type RedisSessionStore struct {
	rdb     *redis.Client
	shop    string
	visitor string
}

func NewRedisSessionStore(rdb *redis.Client, shop, visitor string) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, shop: shop, visitor: visitor}
}

func (s *RedisSessionStore) key() string {
	return "flashoff:session:" + s.shop + ":" + s.visitor
}

func (s *RedisSessionStore) get(field string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := s.rdb.HGet(ctx, s.key(), field).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("⚠️ Lecture session %s impossible: %v", field, err)
		return "", false
	}
	return v, true
}

func (s *RedisSessionStore) set(field, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, s.key(), field, value)
	pipe.Expire(ctx, s.key(), 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("⚠️ Écriture session %s impossible: %v", field, err)
	}
}

func (s *RedisSessionStore) SessionStart() (time.Time, bool) {
	raw, ok := s.get(keySessionStart)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *RedisSessionStore) SetSessionStart(t time.Time) {
	s.set(keySessionStart, strconv.FormatInt(t.UnixMilli(), 10))
}

func (s *RedisSessionStore) Shown() bool {
	v, _ := s.get(keyPopupShown)
	return v == "true"
}

func (s *RedisSessionStore) SetShown(v bool) {
	s.set(keyPopupShown, strconv.FormatBool(v))
}

func (s *RedisSessionStore) Dismissed() bool {
	v, _ := s.get(keyDismissed)
	return v == "true"
}

func (s *RedisSessionStore) SetDismissed(v bool) {
	s.set(keyDismissed, strconv.FormatBool(v))
}

func (s *RedisSessionStore) SavedDiscount() (models.ActiveDiscount, bool) {
	raw, ok := s.get(keyDiscountData)
	if !ok || raw == "" {
		return models.ActiveDiscount{}, false
	}
	var d models.ActiveDiscount
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return models.ActiveDiscount{}, false
	}
	return d, true
}

func (s *RedisSessionStore) SaveDiscount(d models.ActiveDiscount) {
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	s.set(keyDiscountData, string(data))
}

func (s *RedisSessionStore) Applying() bool {
	v, _ := s.get(keyApplying)
	return v == "true"
}

func (s *RedisSessionStore) SetApplying(v bool) {
	s.set(keyApplying, strconv.FormatBool(v))
}

func (s *RedisSessionStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Del(ctx, s.key()).Err(); err != nil {
		log.Printf("⚠️ Purge session impossible: %v", err)
	}
}
