package models

import "time"

// Unités d'expiration acceptées pour une DiscountRequest
const (
	ExpiryUnitMinutes = "minutes"
	ExpiryUnitHours   = "hours"
	ExpiryUnitDays    = "days"
)

// DiscountRequest - intention du marchand lors d'une génération de remise
type DiscountRequest struct {
	Percentage      int    `json:"percentage"` // 5-50
	NoExpiry        bool   `json:"noExpiry"`
	ExpiryDuration  int    `json:"expiryDuration,omitempty"`
	ExpiryUnit      string `json:"expiryUnit,omitempty"` // minutes | hours | days
	OncePerCustomer bool   `json:"oncePerCustomer"`
	TotalUsageLimit *int   `json:"totalUsageLimit,omitempty"` // nil = illimité
}

// ExpiryAsDuration convertit la politique d'expiration en time.Duration.
// Le zéro signifie "jamais" et doit être testé via NoExpiry avant appel.
func (r DiscountRequest) ExpiryAsDuration() time.Duration {
	switch r.ExpiryUnit {
	case ExpiryUnitMinutes:
		return time.Duration(r.ExpiryDuration) * time.Minute
	case ExpiryUnitHours:
		return time.Duration(r.ExpiryDuration) * time.Hour
	case ExpiryUnitDays:
		return time.Duration(r.ExpiryDuration) * 24 * time.Hour
	}
	return 0
}

// DiscountRecord - résultat d'une génération réussie. Un seul enregistrement
// est "courant" par boutique ; le suivant le remplace sans le supprimer de
// l'historique.
type DiscountRecord struct {
	DiscountID      string     `json:"discountId"` // identifiant Shopify (gid://...)
	Code            string     `json:"code"`       // code d'affichage local, 8 car. [A-Z0-9]
	Percentage      int        `json:"percentage"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"` // nil = n'expire jamais
	IsAutomatic     bool       `json:"isAutomatic"`
	OncePerCustomer bool       `json:"oncePerCustomer"`
	TotalUsageLimit *int       `json:"totalUsageLimit,omitempty"`
}

// ActiveDiscountStatus - verdict de la plateforme sur "quelque chose est-il
// actif en ce moment", indépendamment du cache local
type ActiveDiscountStatus struct {
	HasActiveDiscount bool       `json:"hasActiveDiscount"`
	DiscountID        string     `json:"discountId,omitempty"`
	DiscountCode      string     `json:"discountCode,omitempty"`
	Percentage        int        `json:"discountPercentage,omitempty"`
	IsAutomatic       bool       `json:"isAutomatic"`
	StartsAt          *time.Time `json:"discountStartsAt,omitempty"`
	ExpiresAt         *time.Time `json:"discountExpiresAt,omitempty"`
	NoExpiry          bool       `json:"noExpiry"`
	Status            string     `json:"status,omitempty"`
	Title             string     `json:"title,omitempty"`
}

// ActiveDiscount - copie locale (côté visiteur) du DiscountRecord, mise en
// cache dans le stockage de session pour affichage sans aller-retour réseau
type ActiveDiscount struct {
	Code        string     `json:"code"`
	Percentage  int        `json:"percentage"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	IsAutomatic bool       `json:"isAutomatic"`
}

// IsStillActive indique si la remise mise en cache est encore valable
func (d ActiveDiscount) IsStillActive(now time.Time) bool {
	if d.ExpiresAt == nil {
		return true
	}
	return d.ExpiresAt.After(now)
}

// DiscountHistoryEntry - ligne de l'historique d'audit des remises générées
type DiscountHistoryEntry struct {
	ID          string     `json:"id"`
	ShopID      string     `json:"shopId"`
	Code        string     `json:"code"`
	Percentage  int        `json:"percentage"`
	DiscountID  string     `json:"discountId"`
	IsAutomatic bool       `json:"isAutomatic"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}
