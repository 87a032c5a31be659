package popup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flashoff_back_end/internal/models"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg := ParseConfig(map[string]string{})

	assert.Equal(t, models.DefaultBackgroundColor, cfg.BackgroundColor)
	assert.Equal(t, models.DefaultTextColor, cfg.TextColor)
	assert.Equal(t, models.DefaultEmoji, cfg.Emoji)
	assert.Equal(t, models.DefaultBarText, cfg.BarText)
	assert.Equal(t, models.DefaultTimerDuration, cfg.TimerDuration)
	assert.Equal(t, models.DefaultPercentage, cfg.DiscountPercentage)
	assert.Equal(t, models.DefaultSessionThreshold, cfg.SessionThreshold)
	assert.True(t, cfg.RequireCartItems)
	assert.Empty(t, cfg.DiscountCode)
	assert.False(t, cfg.IsAutomatic)
}

func TestParseConfigReadsAttributes(t *testing.T) {
	cfg := ParseConfig(map[string]string{
		"background-color":    "#000000",
		"text-color":          "#00FF00",
		"emoji":               "⚡",
		"timer-duration":      "30",
		"discount-percentage": "40",
		"bar-text":            "Profitez de {discount}% !",
		"session-threshold":   "120",
		"require-cart-items":  "false",
		"discount-code":       "SAVE40XY",
		"is-automatic":        "true",
	})

	assert.Equal(t, "#000000", cfg.BackgroundColor)
	assert.Equal(t, "⚡", cfg.Emoji)
	assert.Equal(t, 30, cfg.TimerDuration)
	assert.Equal(t, 40, cfg.DiscountPercentage)
	assert.Equal(t, 120, cfg.SessionThreshold)
	assert.False(t, cfg.RequireCartItems)
	assert.Equal(t, "SAVE40XY", cfg.DiscountCode)
	assert.True(t, cfg.IsAutomatic)
}

func TestParseConfigRejectsOutOfRange(t *testing.T) {
	cfg := ParseConfig(map[string]string{
		"timer-duration":      "200",   // hors 5-60
		"discount-percentage": "3",     // hors 5-50
		"session-threshold":   "5000",  // hors 10-300
	})

	assert.Equal(t, models.DefaultTimerDuration, cfg.TimerDuration)
	assert.Equal(t, models.DefaultPercentage, cfg.DiscountPercentage)
	assert.Equal(t, models.DefaultSessionThreshold, cfg.SessionThreshold)
}

func TestParseConfigToleratesGarbage(t *testing.T) {
	cfg := ParseConfig(map[string]string{
		"timer-duration":     "pas-un-nombre",
		"require-cart-items": "peut-être",
	})

	assert.Equal(t, models.DefaultTimerDuration, cfg.TimerDuration)
	// tout sauf "false" vaut true
	assert.True(t, cfg.RequireCartItems)
}

func TestFormatBarText(t *testing.T) {
	assert.Equal(t, "25% de remise", FormatBarText("{discount}% de remise", 25))
	assert.Equal(t, "sans jeton", FormatBarText("sans jeton", 25))
	assert.Equal(t, "25 et 25", FormatBarText("{discount} et {discount}", 25))
}
