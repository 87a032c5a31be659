package shopify

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrTokenNotFound - la boutique n'a pas (ou plus) installé l'application
var ErrTokenNotFound = errors.New("aucun token d'accès pour cette boutique")

// TokenStore conserve le token d'accès hors-ligne de chaque boutique obtenu
// lors de l'installation OAuth
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func tokenKey(shop string) string {
	return "flashoff:token:" + shop
}

// Save enregistre le token d'une boutique (sans expiration : les tokens
// hors-ligne Shopify restent valides jusqu'à la désinstallation)
func (s *TokenStore) Save(ctx context.Context, shop, token string) error {
	if err := s.rdb.Set(ctx, tokenKey(shop), token, 0).Err(); err != nil {
		return fmt.Errorf("enregistrement du token impossible: %w", err)
	}
	return nil
}

// Get retourne le token d'une boutique, ou ErrTokenNotFound
func (s *TokenStore) Get(ctx context.Context, shop string) (string, error) {
	token, err := s.rdb.Get(ctx, tokenKey(shop)).Result()
	if err == redis.Nil {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lecture du token impossible: %w", err)
	}
	return token, nil
}

// Delete supprime le token (désinstallation ou effacement RGPD)
func (s *TokenStore) Delete(ctx context.Context, shop string) error {
	return s.rdb.Del(ctx, tokenKey(shop)).Err()
}
