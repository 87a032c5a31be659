package middleware

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/shopify"
)

// ProxySignature protège les routes servies via l'app proxy du storefront.
// Shopify signe chaque requête proxy avec le secret de l'app ; une signature
// absente ou fausse vaut 401. Le paramètre "shop" validé est déposé dans le
// contexte.
func ProxySignature() gin.HandlerFunc {
	secret := os.Getenv("SHOPIFY_API_SECRET")

	return func(c *gin.Context) {
		query := c.Request.URL.Query()

		if !shopify.VerifyProxySignature(query, secret) {
			log.Printf("❌ Signature proxy invalide depuis %s", c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Signature invalide"})
			c.Abort()
			return
		}

		shop := query.Get("shop")
		if !strings.HasSuffix(shop, ".myshopify.com") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Boutique invalide"})
			c.Abort()
			return
		}

		c.Set("shop", shop)
		c.Next()
	}
}
