package discount

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"flashoff_back_end/internal/models"
	"flashoff_back_end/internal/shopify"
)

// AdminAPI - la partie de l'Admin API Shopify dont le manager a besoin.
// Le client réel est injecté à la construction, jamais un singleton de module,
// pour pouvoir être remplacé par un faux en test.
type AdminAPI interface {
	CreateCodeDiscount(ctx context.Context, in shopify.CodeDiscountInput) (string, error)
	CreateAutomaticDiscount(ctx context.Context, in shopify.AutomaticDiscountInput) (string, error)
	ListFlashSaleDiscounts(ctx context.Context) ([]shopify.DiscountNode, error)
}

// SettingsStore - persistance des réglages de la boutique
type SettingsStore interface {
	Get(ctx context.Context, shop string) (models.ShopSettings, error)
	Save(ctx context.Context, shop string, settings models.ShopSettings) error
}

// History - journal d'audit des remises générées (facultatif, peut être nil)
type History interface {
	Record(ctx context.Context, entry models.DiscountHistoryEntry) error
}

// Manager pilote le cycle de vie des remises : validation, création côté
// Shopify, persistance locale et réconciliation avec l'état réel de la
// plateforme
type Manager struct {
	admin    AdminAPI
	store    SettingsStore
	history  History
	now      func() time.Time
	makeCode func() string
}

// Option de construction du Manager (horloge et générateur de code
// remplaçables en test)
type Option func(*Manager)

func WithNow(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithCodeGenerator(gen func() string) Option {
	return func(m *Manager) { m.makeCode = gen }
}

func NewManager(admin AdminAPI, store SettingsStore, history History, opts ...Option) *Manager {
	m := &Manager{
		admin:    admin,
		store:    store,
		history:  history,
		now:      time.Now,
		makeCode: GenerateDisplayCode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// validate rejette les requêtes hors contrat sans rien envoyer à Shopify
func validate(req models.DiscountRequest) error {
	if req.Percentage < 5 || req.Percentage > 50 {
		return &ValidationError{Field: "percentage", Message: "le pourcentage doit être entre 5 et 50"}
	}
	if !req.NoExpiry {
		switch req.ExpiryUnit {
		case models.ExpiryUnitMinutes, models.ExpiryUnitHours, models.ExpiryUnitDays:
		default:
			return &ValidationError{Field: "expiryUnit", Message: "unité d'expiration invalide (minutes, hours ou days)"}
		}
		if req.ExpiryDuration <= 0 {
			return &ValidationError{Field: "expiryDuration", Message: "la durée d'expiration doit être positive"}
		}
	}
	if req.TotalUsageLimit != nil && *req.TotalUsageLimit <= 0 {
		return &ValidationError{Field: "totalUsageLimit", Message: "la limite d'utilisation doit être un entier positif"}
	}
	return nil
}

// Generate crée la remise demandée côté Shopify puis l'enregistre comme
// remise courante de la boutique.
//
// oncePerCustomer=true impose une remise à code (le code généré devient le
// code de rédemption) ; sinon la remise est automatique et le code généré ne
// sert qu'à l'affichage. La persistance locale n'a lieu qu'APRÈS confirmation
// de Shopify : les réglages ne prétendent jamais qu'une remise existe sans
// que la plateforme l'ait confirmé. Si la persistance échoue ensuite, la
// remise est retournée avec une *PersistenceError : avertissement, pas échec.
func (m *Manager) Generate(ctx context.Context, shop string, req models.DiscountRequest) (models.DiscountRecord, error) {
	if err := validate(req); err != nil {
		return models.DiscountRecord{}, err
	}

	now := m.now()
	var expiresAt *time.Time
	if !req.NoExpiry {
		t := now.Add(req.ExpiryAsDuration())
		expiresAt = &t
	}

	code := m.makeCode()
	title := shopify.BuildFlashSaleTitle(req.Percentage, now)

	var discountID string
	var err error
	if req.OncePerCustomer {
		discountID, err = m.admin.CreateCodeDiscount(ctx, shopify.CodeDiscountInput{
			Title:                  title,
			Code:                   code,
			Percentage:             req.Percentage,
			StartsAt:               now,
			EndsAt:                 expiresAt,
			AppliesOncePerCustomer: true,
			UsageLimit:             req.TotalUsageLimit,
		})
	} else {
		discountID, err = m.admin.CreateAutomaticDiscount(ctx, shopify.AutomaticDiscountInput{
			Title:      title,
			Percentage: req.Percentage,
			StartsAt:   now,
			EndsAt:     expiresAt,
		})
	}
	if err != nil {
		var apiErr *shopify.APIError
		if errors.As(err, &apiErr) {
			return models.DiscountRecord{}, &ExternalServiceError{
				Message:    apiErr.Message,
				UserErrors: apiErr.UserErrors,
			}
		}
		return models.DiscountRecord{}, &ExternalServiceError{Message: err.Error()}
	}

	rec := models.DiscountRecord{
		DiscountID:      discountID,
		Code:            code,
		Percentage:      req.Percentage,
		CreatedAt:       now,
		ExpiresAt:       expiresAt,
		IsAutomatic:     !req.OncePerCustomer,
		OncePerCustomer: req.OncePerCustomer,
		TotalUsageLimit: req.TotalUsageLimit,
	}

	if m.history != nil {
		entry := models.DiscountHistoryEntry{
			ShopID:      shop,
			Code:        rec.Code,
			Percentage:  rec.Percentage,
			DiscountID:  rec.DiscountID,
			IsAutomatic: rec.IsAutomatic,
			CreatedAt:   rec.CreatedAt,
			ExpiresAt:   rec.ExpiresAt,
		}
		if err := m.history.Record(ctx, entry); err != nil {
			// l'historique n'est pas la source de vérité, on se contente de journaliser
			log.Printf("⚠️ Historique des remises non enregistré pour %s: %v", shop, err)
		}
	}

	settings, err := m.store.Get(ctx, shop)
	if err != nil {
		log.Printf("⚠️ Lecture des réglages échouée après création de la remise %s: %v", discountID, err)
		return rec, &PersistenceError{Op: "lecture des réglages", Err: err}
	}
	settings.ApplyDiscountRecord(rec)
	if err := m.store.Save(ctx, shop, settings); err != nil {
		log.Printf("⚠️ Sauvegarde des réglages échouée après création de la remise %s: %v", discountID, err)
		return rec, &PersistenceError{Op: "sauvegarde des réglages", Err: err}
	}

	log.Printf("✅ Remise %d%% enregistrée comme courante pour %s (code %s)", rec.Percentage, shop, rec.Code)
	return rec, nil
}

// CheckActive interroge Shopify pour savoir si une remise de l'application est
// active en ce moment, indépendamment du cache local (qui peut dériver :
// modifications manuelles côté plateforme, expiration passée). Lecture pure,
// sans effet de bord.
func (m *Manager) CheckActive(ctx context.Context) (models.ActiveDiscountStatus, error) {
	nodes, err := m.admin.ListFlashSaleDiscounts(ctx)
	if err != nil {
		var apiErr *shopify.APIError
		if errors.As(err, &apiErr) {
			return models.ActiveDiscountStatus{}, &ExternalServiceError{Message: apiErr.Message, UserErrors: apiErr.UserErrors}
		}
		return models.ActiveDiscountStatus{}, &ExternalServiceError{Message: err.Error()}
	}

	// Les plus récentes d'abord, d'après le timestamp embarqué dans le titre
	sort.SliceStable(nodes, func(i, j int) bool {
		ti := shopify.ExtractTimestampFromTitle(nodes[i].Title)
		tj := shopify.ExtractTimestampFromTitle(nodes[j].Title)
		if ti != tj {
			return ti > tj
		}
		return nodes[i].Title > nodes[j].Title
	})

	for _, node := range nodes {
		if node.Status != "ACTIVE" {
			continue
		}

		code := node.Code
		if code == "" {
			code = shopify.ExtractCodeFromTitle(node.Title)
		}
		if code == "" {
			// aucune trace du code : on en fabrique un pour l'affichage
			code = m.makeCode()
		}

		return models.ActiveDiscountStatus{
			HasActiveDiscount: true,
			DiscountID:        node.ID,
			DiscountCode:      code,
			Percentage:        shopify.ExtractPercentageFromTitle(node.Title),
			IsAutomatic:       node.IsAutomatic,
			StartsAt:          node.StartsAt,
			ExpiresAt:         node.EndsAt,
			NoExpiry:          node.EndsAt == nil,
			Status:            node.Status,
			Title:             node.Title,
		}, nil
	}

	// aucune remise ACTIVE : le cache local a tort s'il prétend le contraire
	return models.ActiveDiscountStatus{HasActiveDiscount: false}, nil
}

// IsDiscountActive - fonction pure : nil → false, sans expiration → toujours
// active, sinon active tant que l'expiration est dans le futur
func IsDiscountActive(rec *models.DiscountRecord, now time.Time) bool {
	if rec == nil {
		return false
	}
	if rec.ExpiresAt == nil {
		return true
	}
	return rec.ExpiresAt.After(now)
}
