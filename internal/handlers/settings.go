package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSettings retourne les réglages de la boutique, créés avec les valeurs
// par défaut à la première lecture
func (a *API) GetSettings(c *gin.Context) {
	shop := shopFrom(c)

	s, err := a.Settings.Get(c.Request.Context(), shop)
	if err != nil {
		log.Printf("❌ Lecture des réglages impossible pour %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture des réglages impossible"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// SaveSettings met à jour l'apparence et les conditions d'affichage. Les
// champs de la remise courante sont préservés tels quels : seul le cycle de
// vie des remises a le droit de les toucher.
func (a *API) SaveSettings(c *gin.Context) {
	shop := shopFrom(c)

	var input struct {
		BackgroundColor  string `json:"backgroundColor"`
		TextColor        string `json:"textColor"`
		Emoji            string `json:"emoji"`
		BarText          string `json:"barText"`
		TimerDuration    int    `json:"timerDuration"`
		SessionThreshold int    `json:"sessionThreshold"`
		RequireCartItems *bool  `json:"requireCartItems"`
		IsActive         *bool  `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Corps de requête invalide"})
		return
	}

	if input.TimerDuration != 0 && (input.TimerDuration < 5 || input.TimerDuration > 60) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timerDuration doit être entre 5 et 60 minutes"})
		return
	}
	if input.SessionThreshold != 0 && (input.SessionThreshold < 10 || input.SessionThreshold > 300) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionThreshold doit être entre 10 et 300 secondes"})
		return
	}

	ctx := c.Request.Context()
	current, err := a.Settings.Get(ctx, shop)
	if err != nil {
		log.Printf("❌ Lecture des réglages impossible pour %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture des réglages impossible"})
		return
	}

	if input.BackgroundColor != "" {
		current.BackgroundColor = input.BackgroundColor
	}
	if input.TextColor != "" {
		current.TextColor = input.TextColor
	}
	if input.Emoji != "" {
		current.Emoji = input.Emoji
	}
	if input.BarText != "" {
		current.BarText = input.BarText
	}
	if input.TimerDuration != 0 {
		current.TimerDuration = input.TimerDuration
	}
	if input.SessionThreshold != 0 {
		current.SessionThreshold = input.SessionThreshold
	}
	if input.RequireCartItems != nil {
		current.RequireCartItems = *input.RequireCartItems
	}
	if input.IsActive != nil {
		current.IsActive = *input.IsActive
	}

	if err := a.Settings.Save(ctx, shop, current); err != nil {
		log.Printf("❌ Sauvegarde des réglages impossible pour %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sauvegarde des réglages impossible"})
		return
	}

	// Miroir vers le metafield boutique, en tâche de fond : le thème lit les
	// réglages sans repasser par l'app
	a.mirrorSettingsMetafield(shop)

	log.Printf("✅ Réglages sauvegardés pour %s", shop)
	c.JSON(http.StatusOK, current)
}

// ToggleActive active ou désactive la barre sans toucher au reste
func (a *API) ToggleActive(c *gin.Context) {
	shop := shopFrom(c)

	ctx := c.Request.Context()
	current, err := a.Settings.Get(ctx, shop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lecture des réglages impossible"})
		return
	}

	current.IsActive = !current.IsActive
	if err := a.Settings.Save(ctx, shop, current); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sauvegarde des réglages impossible"})
		return
	}

	a.mirrorSettingsMetafield(shop)

	log.Printf("✅ Barre %s pour %s", map[bool]string{true: "activée", false: "désactivée"}[current.IsActive], shop)
	c.JSON(http.StatusOK, gin.H{"isActive": current.IsActive})
}

// mirrorSettingsMetafield pousse les réglages dans le metafield
// flashoff.settings de la boutique, sans bloquer la réponse. Un échec ici
// n'est jamais remonté au marchand.
func (a *API) mirrorSettingsMetafield(shop string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		admin, err := a.adminFor(ctx, shop)
		if err != nil {
			log.Printf("⚠️ Miroir metafield impossible pour %s: %v", shop, err)
			return
		}
		s, err := a.Settings.Get(ctx, shop)
		if err != nil {
			log.Printf("⚠️ Miroir metafield impossible pour %s: %v", shop, err)
			return
		}
		if err := admin.SaveSettingsMetafield(ctx, s); err != nil {
			log.Printf("⚠️ Miroir metafield échoué pour %s: %v", shop, err)
			return
		}
		log.Printf("📤 Réglages miroités dans le metafield pour %s", shop)
	}()
}
