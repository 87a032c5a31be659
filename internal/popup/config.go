package popup

import (
	"strconv"
	"strings"

	"flashoff_back_end/internal/models"
)

// Config - configuration du popup telle qu'injectée dans le storefront via
// les attributs data-* du snippet. Chaque champ absent ou invalide retombe
// sur sa valeur par défaut : le storefront ne doit jamais planter pour une
// configuration bancale.
type Config struct {
	BackgroundColor    string
	TextColor          string
	Emoji              string
	TimerDuration      int // minutes
	DiscountPercentage int
	BarText            string
	SessionThreshold   int // secondes
	RequireCartItems   bool
	DiscountCode       string // code courant côté serveur, peut être vide
	IsAutomatic        bool
}

// ParseConfig lit les attributs data-* du snippet et construit la
// configuration, avec repli sur les défauts champ par champ
func ParseConfig(attrs map[string]string) Config {
	cfg := Config{
		BackgroundColor:    models.DefaultBackgroundColor,
		TextColor:          models.DefaultTextColor,
		Emoji:              models.DefaultEmoji,
		TimerDuration:      models.DefaultTimerDuration,
		DiscountPercentage: models.DefaultPercentage,
		BarText:            models.DefaultBarText,
		SessionThreshold:   models.DefaultSessionThreshold,
		RequireCartItems:   true,
	}

	if v := strings.TrimSpace(attrs["background-color"]); v != "" {
		cfg.BackgroundColor = v
	}
	if v := strings.TrimSpace(attrs["text-color"]); v != "" {
		cfg.TextColor = v
	}
	if v := strings.TrimSpace(attrs["emoji"]); v != "" {
		cfg.Emoji = v
	}
	if v, ok := parseIntAttr(attrs, "timer-duration"); ok && v >= 5 && v <= 60 {
		cfg.TimerDuration = v
	}
	if v, ok := parseIntAttr(attrs, "discount-percentage"); ok && v >= 5 && v <= 50 {
		cfg.DiscountPercentage = v
	}
	if v := strings.TrimSpace(attrs["bar-text"]); v != "" {
		cfg.BarText = v
	}
	if v, ok := parseIntAttr(attrs, "session-threshold"); ok && v >= 10 && v <= 300 {
		cfg.SessionThreshold = v
	}
	if v := strings.TrimSpace(attrs["require-cart-items"]); v != "" {
		cfg.RequireCartItems = v != "false"
	}
	cfg.DiscountCode = strings.TrimSpace(attrs["discount-code"])
	cfg.IsAutomatic = strings.TrimSpace(attrs["is-automatic"]) == "true"

	return cfg
}

func parseIntAttr(attrs map[string]string, key string) (int, bool) {
	raw := strings.TrimSpace(attrs[key])
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatBarText remplace le jeton {discount} par le pourcentage effectif
func FormatBarText(text string, percentage int) string {
	return strings.ReplaceAll(text, "{discount}", strconv.Itoa(percentage))
}
