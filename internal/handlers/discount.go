package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/cache"
	"flashoff_back_end/internal/discount"
	"flashoff_back_end/internal/models"
	"flashoff_back_end/internal/utils"
)

// GenerateDiscount crée une nouvelle remise flash pour la boutique et la
// promeut remise courante
func (a *API) GenerateDiscount(c *gin.Context) {
	shop := shopFrom(c)
	ctx := c.Request.Context()

	var req models.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	mgr, err := a.managerFor(ctx, shop)
	if err != nil {
		if abortNoToken(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Initialisation du client Shopify impossible"})
		return
	}

	rec, err := mgr.Generate(ctx, shop, req)
	if err != nil {
		var valErr *discount.ValidationError
		var extErr *discount.ExternalServiceError
		var persErr *discount.PersistenceError
		switch {
		case errors.As(err, &valErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message, "field": valErr.Field})
			return
		case errors.As(err, &extErr):
			log.Printf("❌ Création de remise refusée par Shopify pour %s: %v", shop, extErr)
			c.JSON(http.StatusBadGateway, gin.H{
				"error":      "Shopify a refusé la création de la remise",
				"userErrors": extErr.UserErrors,
			})
			return
		case errors.As(err, &persErr):
			// la remise existe côté Shopify, seule la copie locale a échoué
			cache.InvalidateStatusCache(ctx, shop)
			c.JSON(http.StatusOK, gin.H{
				"discount": rec,
				"warning":  "Remise créée mais la sauvegarde locale a échoué, rechargez la page",
			})
			return
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Création de la remise impossible"})
			return
		}
	}

	cache.InvalidateStatusCache(ctx, shop)

	if email := os.Getenv("MERCHANT_NOTIFY_EMAIL"); email != "" {
		go func(rec models.DiscountRecord) {
			if err := utils.SendDiscountCreatedEmail(email, shop, rec); err != nil {
				log.Printf("⚠️ E-mail de notification non envoyé: %v", err)
			}
		}(rec)
	}

	log.Printf("🚀 Remise %d%% générée pour %s (code %s)", rec.Percentage, shop, rec.Code)
	c.JSON(http.StatusOK, gin.H{"discount": rec})
}

// CheckDiscountStatus interroge Shopify pour l'état réel des remises de
// l'app, sans se fier au cache local des réglages. Le verdict est mémorisé
// 30 secondes : l'admin rafraîchit en boucle.
func (a *API) CheckDiscountStatus(c *gin.Context) {
	shop := shopFrom(c)
	ctx := c.Request.Context()

	if cached, ok := cache.GetStatusFromCache(ctx, shop); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	mgr, err := a.managerFor(ctx, shop)
	if err != nil {
		if abortNoToken(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Initialisation du client Shopify impossible"})
		return
	}

	status, err := mgr.CheckActive(ctx)
	if err != nil {
		log.Printf("❌ Vérification du statut impossible pour %s: %v", shop, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Vérification du statut impossible"})
		return
	}

	if err := cache.SetStatusCache(ctx, shop, status); err != nil {
		log.Printf("⚠️ Mémorisation du statut impossible pour %s: %v", shop, err)
	}

	c.JSON(http.StatusOK, status)
}

// RecentDiscounts liste les dernières remises générées (historique d'audit)
func (a *API) RecentDiscounts(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusOK, gin.H{"history": []models.DiscountHistoryEntry{}})
		return
	}

	shop := shopFrom(c)
	entries, err := a.History.Recent(c.Request.Context(), shop, 10)
	if err != nil {
		log.Printf("❌ Lecture de l'historique impossible pour %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture de l'historique impossible"})
		return
	}
	if entries == nil {
		entries = []models.DiscountHistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// CleanupHistory purge de l'historique les remises expirées
func (a *API) CleanupHistory(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusOK, gin.H{"deleted": 0})
		return
	}

	shop := shopFrom(c)
	deleted, err := a.History.CleanupExpired(c.Request.Context(), shop, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Purge de l'historique impossible"})
		return
	}

	log.Printf("🧹 %d remises expirées purgées de l'historique pour %s", deleted, shop)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// DiscountQR génère un QR code pointant vers l'URL de partage de la remise
// courante. PNG brut par défaut ; ?format=json retourne un data URI prêt à
// mettre dans un <img> de l'admin embarqué.
func (a *API) DiscountQR(c *gin.Context) {
	shop := shopFrom(c)

	s, err := a.Settings.Get(c.Request.Context(), shop)
	if err != nil || s.DiscountCode == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucune remise courante"})
		return
	}

	url := fmt.Sprintf("https://%s/discount/%s", shop, s.DiscountCode)

	if c.Query("format") == "json" {
		dataURI, err := utils.GenerateQRCodeBase64(url)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du QR code impossible"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"qrCode": dataURI, "url": url})
		return
	}

	png, err := utils.GenerateQRCode(url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Génération du QR code impossible"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// DebugDiscount vérifie étape par étape la chaîne token → API → remise
// courante, pour diagnostiquer une installation
func (a *API) DebugDiscount(c *gin.Context) {
	shop := shopFrom(c)
	ctx := c.Request.Context()
	steps := gin.H{"shop": shop}

	token, err := a.Tokens.Get(ctx, shop)
	if err != nil {
		steps["token"] = "absent"
		c.JSON(http.StatusOK, steps)
		return
	}
	steps["token"] = fmt.Sprintf("présent (%d caractères)", len(token))

	mgr, err := a.managerFor(ctx, shop)
	if err != nil {
		steps["client"] = err.Error()
		c.JSON(http.StatusOK, steps)
		return
	}
	steps["client"] = "ok"

	status, err := mgr.CheckActive(ctx)
	if err != nil {
		steps["platform"] = err.Error()
		c.JSON(http.StatusOK, steps)
		return
	}
	steps["platform"] = status

	s, err := a.Settings.Get(ctx, shop)
	if err != nil {
		steps["settings"] = err.Error()
	} else {
		steps["settings"] = gin.H{
			"isActive":     s.IsActive,
			"discountCode": s.DiscountCode,
			"noExpiry":     s.NoExpiry,
			"expiresAt":    s.DiscountExpiresAt,
		}
	}

	c.JSON(http.StatusOK, steps)
}
