package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/shopify"
)

// HandleWebhook reçoit les webhooks Shopify. La signature HMAC est vérifiée
// sur le corps brut avant toute interprétation ; une signature fausse vaut
// 401 sans traitement.
func (a *API) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps illisible"})
		return
	}

	hmacHeader := c.GetHeader("X-Shopify-Hmac-Sha256")
	if !shopify.VerifyWebhookHmac(body, hmacHeader, os.Getenv("SHOPIFY_API_SECRET")) {
		log.Printf("❌ Webhook avec HMAC invalide depuis %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "HMAC invalide"})
		return
	}

	topic := c.GetHeader("X-Shopify-Topic")
	shop := c.GetHeader("X-Shopify-Shop-Domain")
	ctx := c.Request.Context()

	switch topic {
	case "app/uninstalled":
		// le token est révoqué par Shopify, on oublie le nôtre ; les
		// réglages restent pour une éventuelle réinstallation
		if err := a.Tokens.Delete(ctx, shop); err != nil {
			log.Printf("⚠️ Suppression du token impossible pour %s: %v", shop, err)
		}
		log.Printf("👋 Application désinstallée de %s", shop)

	case "shop/redact":
		// demande RGPD : on efface tout ce qu'on sait de la boutique
		var payload struct {
			ShopDomain string `json:"shop_domain"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.ShopDomain != "" {
			shop = payload.ShopDomain
		}
		if err := a.Settings.Delete(ctx, shop); err != nil {
			log.Printf("⚠️ Effacement des réglages impossible pour %s: %v", shop, err)
		}
		if err := a.Tokens.Delete(ctx, shop); err != nil {
			log.Printf("⚠️ Suppression du token impossible pour %s: %v", shop, err)
		}
		if a.History != nil {
			if err := a.History.Erase(ctx, shop); err != nil {
				log.Printf("⚠️ Effacement de l'historique impossible pour %s: %v", shop, err)
			}
		}
		log.Printf("🧹 Données effacées pour %s (shop/redact)", shop)

	case "customers/data_request", "customers/redact":
		// l'app ne stocke aucune donnée client : rien à faire, on accuse
		// réception
		log.Printf("✅ Webhook %s accusé pour %s (aucune donnée client stockée)", topic, shop)

	default:
		log.Printf("⚠️ Webhook non géré: %s pour %s", topic, shop)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
