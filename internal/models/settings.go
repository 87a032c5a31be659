package models

import (
	"strings"
	"time"
)

// Valeurs par défaut de la barre de remise (créées paresseusement à la première lecture)
const (
	DefaultBackgroundColor  = "#FF5733"
	DefaultTextColor        = "#FFFFFF"
	DefaultEmoji            = "🔥"
	DefaultBarText          = "Limited time offer! {discount}% off your entire order automatically applied!"
	DefaultTimerDuration    = 15 // minutes
	DefaultPercentage       = 15
	DefaultSessionThreshold = 60 // secondes
)

// ShopSettings regroupe toute la configuration d'une boutique : apparence de la
// barre, conditions d'affichage du popup, et la remise courante (aplatie).
// Il existe exactement un ShopSettings par boutique.
type ShopSettings struct {
	ShopID          string `json:"shopId"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	Emoji           string `json:"emoji"`
	BarText         string `json:"barText"`       // contient le placeholder {discount}
	TimerDuration   int    `json:"timerDuration"` // minutes, 5-60
	IsActive        bool   `json:"isActive"`

	// Conditions de déclenchement du popup
	SessionThreshold int  `json:"sessionThreshold"` // secondes, 10-300
	RequireCartItems bool `json:"requireCartItems"`

	// Remise courante (champs du DiscountRecord aplatis)
	DiscountID         string     `json:"discountId,omitempty"`
	DiscountCode       string     `json:"discountCode,omitempty"`
	DiscountPercentage int        `json:"discountPercentage"`
	IsAutomatic        bool       `json:"isAutomatic"`
	OncePerCustomer    bool       `json:"oncePerCustomer"`
	TotalUsageLimit    *int       `json:"totalUsageLimit,omitempty"`
	NoExpiry           bool       `json:"noExpiry"`
	DiscountCreatedAt  *time.Time `json:"discountCreatedAt,omitempty"`
	DiscountExpiresAt  *time.Time `json:"discountExpiresAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultShopSettings retourne les réglages par défaut d'une nouvelle boutique
func DefaultShopSettings(shopID string) ShopSettings {
	now := time.Now()
	return ShopSettings{
		ShopID:             shopID,
		BackgroundColor:    DefaultBackgroundColor,
		TextColor:          DefaultTextColor,
		Emoji:              DefaultEmoji,
		BarText:            DefaultBarText,
		TimerDuration:      DefaultTimerDuration,
		DiscountPercentage: DefaultPercentage,
		IsActive:           true,
		SessionThreshold:   DefaultSessionThreshold,
		RequireCartItems:   true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ApplyDiscountRecord remplace la remise courante par un nouvel enregistrement.
// L'ancien enregistrement est écrasé, pas fusionné.
func (s *ShopSettings) ApplyDiscountRecord(rec DiscountRecord) {
	s.DiscountID = rec.DiscountID
	s.DiscountCode = rec.Code
	s.DiscountPercentage = rec.Percentage
	s.IsAutomatic = rec.IsAutomatic
	s.OncePerCustomer = rec.OncePerCustomer
	s.TotalUsageLimit = rec.TotalUsageLimit
	s.NoExpiry = rec.ExpiresAt == nil
	created := rec.CreatedAt
	s.DiscountCreatedAt = &created
	s.DiscountExpiresAt = rec.ExpiresAt
	s.UpdatedAt = time.Now()
}

// CurrentDiscountRecord reconstruit le DiscountRecord courant depuis les champs
// aplatis, ou nil si aucune remise n'a encore été générée.
func (s ShopSettings) CurrentDiscountRecord() *DiscountRecord {
	if s.DiscountID == "" {
		return nil
	}
	rec := DiscountRecord{
		DiscountID:      s.DiscountID,
		Code:            s.DiscountCode,
		Percentage:      s.DiscountPercentage,
		IsAutomatic:     s.IsAutomatic,
		OncePerCustomer: s.OncePerCustomer,
		TotalUsageLimit: s.TotalUsageLimit,
		ExpiresAt:       s.DiscountExpiresAt,
	}
	if s.DiscountCreatedAt != nil {
		rec.CreatedAt = *s.DiscountCreatedAt
	}
	return &rec
}

// MigrateLegacyBarText réécrit l'ancien texte contenant {code} vers le texte
// par défaut actuel, et ramène le minuteur de 30 à 15 minutes.
// Retourne true si une migration a eu lieu (il faut alors re-sauvegarder).
func (s *ShopSettings) MigrateLegacyBarText() bool {
	if !strings.Contains(s.BarText, "{code}") {
		return false
	}
	s.BarText = DefaultBarText
	if s.TimerDuration == 30 {
		s.TimerDuration = 15
	}
	s.UpdatedAt = time.Now()
	return true
}
