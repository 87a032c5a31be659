package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/handlers"
	"flashoff_back_end/internal/middleware"
)

// RegisterRoutes câble les trois surfaces de l'app : l'admin embarqué
// (session token), le storefront via l'app proxy (signature) et les
// webhooks (HMAC vérifié dans le handler, sur le corps brut).
func RegisterRoutes(r *gin.Engine, api *handlers.API) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://admin.shopify.com"},
		AllowOriginFunc:  func(origin string) bool { return true }, // le storefront appelle depuis le domaine de chaque boutique
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Installation OAuth
	r.GET("/api/auth", api.BeginInstall)
	r.GET("/api/auth/callback", api.OAuthCallback)

	// Webhooks Shopify
	r.POST("/api/webhooks", api.HandleWebhook)

	// Admin embarqué : chaque requête porte un session token Shopify
	admin := r.Group("/api", middleware.AuthRequired())
	{
		admin.GET("/settings", api.GetSettings)
		admin.POST("/settings", api.SaveSettings)
		admin.POST("/settings/toggle", api.ToggleActive)

		admin.POST("/discount/generate", middleware.GenerateRateLimit(), api.GenerateDiscount)
		admin.GET("/discount/status", api.CheckDiscountStatus)
		admin.GET("/discount/history", api.RecentDiscounts)
		admin.POST("/discount/cleanup", api.CleanupHistory)
		admin.GET("/discount/qr", api.DiscountQR)
		admin.GET("/discount/debug", api.DebugDiscount)
	}

	// Storefront via l'app proxy : requêtes signées par Shopify
	proxy := r.Group("/proxy", middleware.ProxySignature(), middleware.APIRateLimit())
	{
		proxy.GET("/settings", api.ProxySettings)
		proxy.GET("/bar", api.BarSnippet)
		proxy.GET("/popup/ws", api.PopupWebSocket)
	}
}
