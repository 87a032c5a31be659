package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"

	"flashoff_back_end/internal/discount"
	"flashoff_back_end/internal/models"
	"flashoff_back_end/internal/settings"
	"flashoff_back_end/internal/shopify"
)

// HistoryStore - historique d'audit des remises, absent si ScyllaDB n'est
// pas configuré
type HistoryStore interface {
	Record(ctx context.Context, entry models.DiscountHistoryEntry) error
	Recent(ctx context.Context, shop string, limit int) ([]models.DiscountHistoryEntry, error)
	CleanupExpired(ctx context.Context, shop string, now time.Time) (int, error)
	Erase(ctx context.Context, shop string) error
}

// API regroupe les dépendances des handlers. Le client Admin Shopify est
// construit par requête à partir du token de la boutique authentifiée,
// jamais partagé entre boutiques.
type API struct {
	Settings settings.Store
	History  HistoryStore // peut être nil
	Tokens   *shopify.TokenStore
	Redis    *redis.Client

	// store des cookies OAuth, construit avec SESSION_SECRET après le
	// chargement de la configuration — jamais à l'init du paquet, sinon le
	// nonce serait signé avec une clé vide quand le secret vient du .env
	sessions *sessions.CookieStore
}

func NewAPI(store settings.Store, history HistoryStore, tokens *shopify.TokenStore, rdb *redis.Client, sessionSecret string) *API {
	return &API{
		Settings: store,
		History:  history,
		Tokens:   tokens,
		Redis:    rdb,
		sessions: sessions.NewCookieStore([]byte(sessionSecret)),
	}
}

// shopFrom retourne la boutique déposée dans le contexte par le middleware
// d'authentification
func shopFrom(c *gin.Context) string {
	return c.GetString("shop")
}

// adminFor construit le client Admin API de la boutique courante
func (a *API) adminFor(ctx context.Context, shop string) (*shopify.AdminClient, error) {
	token, err := a.Tokens.Get(ctx, shop)
	if err != nil {
		return nil, err
	}
	return shopify.NewAdminClient(shop, token), nil
}

// managerFor construit le Manager de remises de la boutique courante
func (a *API) managerFor(ctx context.Context, shop string) (*discount.Manager, error) {
	admin, err := a.adminFor(ctx, shop)
	if err != nil {
		return nil, err
	}
	var history discount.History
	if a.History != nil {
		history = a.History
	}
	return discount.NewManager(admin, a.Settings, history), nil
}

// abortNoToken répond 401 quand la boutique n'a pas (ou plus) de token,
// typiquement après une désinstallation
func abortNoToken(c *gin.Context, err error) bool {
	if errors.Is(err, shopify.ErrTokenNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Application non installée pour cette boutique"})
		return true
	}
	return false
}
