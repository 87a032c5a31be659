package handlers

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flashoff_back_end/internal/discount"
	"flashoff_back_end/internal/models"
)

// publicSettings - vue storefront des réglages. Jamais d'erreur : en cas de
// pépin on sert les valeurs par défaut, le thème ne doit pas casser.
type publicSettings struct {
	IsActive           bool       `json:"isActive"`
	BackgroundColor    string     `json:"backgroundColor"`
	TextColor          string     `json:"textColor"`
	Emoji              string     `json:"emoji"`
	BarText            string     `json:"barText"`
	TimerDuration      int        `json:"timerDuration"`
	SessionThreshold   int        `json:"sessionThreshold"`
	RequireCartItems   bool       `json:"requireCartItems"`
	DiscountCode       string     `json:"discountCode,omitempty"`
	DiscountPercentage int        `json:"discountPercentage"`
	IsAutomatic        bool       `json:"isAutomatic"`
	NoExpiry           bool       `json:"noExpiry"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
}

func publicView(s models.ShopSettings, now time.Time) publicSettings {
	view := publicSettings{
		IsActive:           s.IsActive,
		BackgroundColor:    s.BackgroundColor,
		TextColor:          s.TextColor,
		Emoji:              s.Emoji,
		BarText:            s.BarText,
		TimerDuration:      s.TimerDuration,
		SessionThreshold:   s.SessionThreshold,
		RequireCartItems:   s.RequireCartItems,
		DiscountPercentage: s.DiscountPercentage,
	}

	// la remise courante n'est exposée que si elle est encore active
	if discount.IsDiscountActive(s.CurrentDiscountRecord(), now) {
		view.DiscountCode = s.DiscountCode
		view.IsAutomatic = s.IsAutomatic
		view.NoExpiry = s.NoExpiry
		view.ExpiresAt = s.DiscountExpiresAt
	}

	return view
}

// ProxySettings sert les réglages au storefront via l'app proxy
func (a *API) ProxySettings(c *gin.Context) {
	shop := shopFrom(c)

	s, err := a.Settings.Get(c.Request.Context(), shop)
	if err != nil {
		log.Printf("⚠️ Réglages illisibles pour %s, on sert les défauts: %v", shop, err)
		s = models.DefaultShopSettings(shop)
	}

	c.JSON(http.StatusOK, publicView(s, time.Now()))
}

// BarSnippet sert le fragment HTML de la barre, configuration embarquée en
// attributs data-*. Le script du thème lit ces attributs et pilote le popup.
func (a *API) BarSnippet(c *gin.Context) {
	shop := shopFrom(c)

	s, err := a.Settings.Get(c.Request.Context(), shop)
	if err != nil {
		log.Printf("⚠️ Réglages illisibles pour %s, on sert les défauts: %v", shop, err)
		s = models.DefaultShopSettings(shop)
	}

	if !s.IsActive {
		c.Data(http.StatusOK, "application/liquid", []byte("<!-- flashoff: barre désactivée -->"))
		return
	}

	view := publicView(s, time.Now())
	snippet := fmt.Sprintf(`<div id="flashoff-bar" style="display:none"
  data-background-color="%s"
  data-text-color="%s"
  data-emoji="%s"
  data-bar-text="%s"
  data-timer-duration="%d"
  data-discount-percentage="%d"
  data-session-threshold="%d"
  data-require-cart-items="%t"
  data-discount-code="%s"
  data-is-automatic="%t"></div>`,
		html.EscapeString(view.BackgroundColor),
		html.EscapeString(view.TextColor),
		html.EscapeString(view.Emoji),
		html.EscapeString(view.BarText),
		view.TimerDuration,
		view.DiscountPercentage,
		view.SessionThreshold,
		view.RequireCartItems,
		html.EscapeString(view.DiscountCode),
		view.IsAutomatic,
	)

	c.Data(http.StatusOK, "application/liquid", []byte(snippet))
}
