package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/database"
)

const (
	// Limites par endpoint
	GenerateMaxAttempts = 5   // générations de remise par boutique
	APIMaxRequests      = 100 // par minute pour les endpoints généraux

	// Durées de cooldown
	GenerateCooldown = 1 * time.Minute
	APICooldown      = 1 * time.Minute
)

// GenerateRateLimit limite les générations de remise par boutique. Chaque
// génération crée un objet côté Shopify : on évite qu'un admin frénétique
// en fabrique des dizaines par minute.
func GenerateRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := c.GetString("shop")
		if shop == "" {
			c.Next()
			return
		}

		ctx := context.Background()
		key := "flashoff:generate_attempts:" + shop

		attempts, _ := database.Redis.Get(ctx, key).Int()
		if attempts >= GenerateMaxAttempts {
			ttl := database.Redis.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de générations. Réessayez dans %d secondes", int(ttl.Seconds())),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()

		// Seules les générations acceptées comptent
		if c.Writer.Status() == http.StatusOK {
			pipe := database.Redis.Pipeline()
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, GenerateCooldown)
			pipe.Exec(ctx)
		}
	}
}

// APIRateLimit limite le nombre de requêtes par IP (général)
func APIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ip := c.ClientIP()
		key := "flashoff:api_requests:" + ip

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= APIMaxRequests {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez dans 1 minute",
				"retry_after": 60,
			})
			c.Abort()
			return
		}

		pipe := database.Redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, APICooldown)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", APIMaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", APIMaxRequests-requests-1))

		c.Next()
	}
}
