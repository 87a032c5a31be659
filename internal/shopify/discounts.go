package shopify

import (
	"context"
	"log"
	"time"
)

// CodeDiscountInput - paramètres d'une remise à code (le client saisit un code)
type CodeDiscountInput struct {
	Title                  string
	Code                   string
	Percentage             int
	StartsAt               time.Time
	EndsAt                 *time.Time // nil = le champ endsAt est omis de la mutation
	AppliesOncePerCustomer bool
	UsageLimit             *int // nil = illimité, champ omis
}

// AutomaticDiscountInput - paramètres d'une remise automatique (sans code)
type AutomaticDiscountInput struct {
	Title      string
	Percentage int
	StartsAt   time.Time
	EndsAt     *time.Time
}

// DiscountNode - vue unifiée d'une remise existante (à code ou automatique)
// telle que renvoyée par la requête de statut
type DiscountNode struct {
	ID          string
	Title       string
	Status      string // ACTIVE | EXPIRED | SCHEDULED
	IsAutomatic bool
	Code        string // vide pour les remises automatiques
	StartsAt    *time.Time
	EndsAt      *time.Time
}

const createCodeDiscountMutation = `
mutation discountCodeBasicCreate($basicCodeDiscount: DiscountCodeBasicInput!) {
  discountCodeBasicCreate(basicCodeDiscount: $basicCodeDiscount) {
    codeDiscountNode {
      id
    }
    userErrors {
      field
      code
      message
    }
  }
}`

const createAutomaticDiscountMutation = `
mutation discountAutomaticBasicCreate($automaticBasicDiscount: DiscountAutomaticBasicInput!) {
  discountAutomaticBasicCreate(automaticBasicDiscount: $automaticBasicDiscount) {
    automaticDiscountNode {
      id
    }
    userErrors {
      field
      code
      message
    }
  }
}`

// La requête de statut interroge les deux familles de remises filtrées par la
// convention de titre "Flash Sale", les plus récentes d'abord
const discountStatusQuery = `
query GetAllDiscountCodesWithStatus {
  codeDiscountNodes(first: 10, reverse: true, query: "title:Flash Sale") {
    nodes {
      id
      codeDiscount {
        ... on DiscountCodeBasic {
          title
          status
          codes(first: 1) {
            nodes {
              code
            }
          }
          startsAt
          endsAt
        }
      }
    }
  }
  automaticDiscountNodes(first: 10, reverse: true, query: "title:Flash Sale") {
    nodes {
      id
      automaticDiscount {
        ... on DiscountAutomaticBasic {
          title
          status
          startsAt
          endsAt
        }
      }
    }
  }
}`

// CreateCodeDiscount crée une remise à code dans Shopify et retourne son
// identifiant. L'omission de endsAt (et non une valeur sentinelle) signale
// l'absence d'expiration à la plateforme.
func (c *AdminClient) CreateCodeDiscount(ctx context.Context, in CodeDiscountInput) (string, error) {
	basic := map[string]any{
		"title":    in.Title,
		"code":     in.Code,
		"startsAt": in.StartsAt.UTC().Format(time.RFC3339),
		"customerSelection": map[string]any{
			"all": true,
		},
		"customerGets": map[string]any{
			"value": map[string]any{
				"percentage": float64(in.Percentage) / 100,
			},
			"items": map[string]any{
				"all": true,
			},
		},
		"appliesOncePerCustomer": in.AppliesOncePerCustomer,
	}
	if in.EndsAt != nil {
		basic["endsAt"] = in.EndsAt.UTC().Format(time.RFC3339)
	}
	if in.UsageLimit != nil {
		basic["usageLimit"] = *in.UsageLimit
	}

	var result struct {
		DiscountCodeBasicCreate struct {
			CodeDiscountNode *struct {
				ID string `json:"id"`
			} `json:"codeDiscountNode"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"discountCodeBasicCreate"`
	}

	err := c.graphql(ctx, createCodeDiscountMutation, map[string]any{"basicCodeDiscount": basic}, &result)
	if err != nil {
		return "", err
	}

	if len(result.DiscountCodeBasicCreate.UserErrors) > 0 {
		return "", &APIError{
			Message:    "Shopify a refusé la création de la remise à code",
			UserErrors: result.DiscountCodeBasicCreate.UserErrors,
		}
	}
	if result.DiscountCodeBasicCreate.CodeDiscountNode == nil {
		return "", &APIError{Message: "réponse sans codeDiscountNode"}
	}

	log.Printf("✅ Remise à code créée dans Shopify: %s", result.DiscountCodeBasicCreate.CodeDiscountNode.ID)
	return result.DiscountCodeBasicCreate.CodeDiscountNode.ID, nil
}

// CreateAutomaticDiscount crée une remise automatique (aucun code requis côté
// client). Les drapeaux combinesWith autorisent le cumul avec les remises de
// livraison uniquement.
func (c *AdminClient) CreateAutomaticDiscount(ctx context.Context, in AutomaticDiscountInput) (string, error) {
	basic := map[string]any{
		"title":    in.Title,
		"startsAt": in.StartsAt.UTC().Format(time.RFC3339),
		"minimumRequirement": map[string]any{
			"subtotal": map[string]any{
				"greaterThanOrEqualToSubtotal": "0.01",
			},
		},
		"customerGets": map[string]any{
			"value": map[string]any{
				"percentage": float64(in.Percentage) / 100,
			},
			"items": map[string]any{
				"all": true,
			},
		},
		"combinesWith": map[string]any{
			"productDiscounts":  false,
			"shippingDiscounts": true,
			"orderDiscounts":    false,
		},
	}
	if in.EndsAt != nil {
		basic["endsAt"] = in.EndsAt.UTC().Format(time.RFC3339)
	}

	var result struct {
		DiscountAutomaticBasicCreate struct {
			AutomaticDiscountNode *struct {
				ID string `json:"id"`
			} `json:"automaticDiscountNode"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"discountAutomaticBasicCreate"`
	}

	err := c.graphql(ctx, createAutomaticDiscountMutation, map[string]any{"automaticBasicDiscount": basic}, &result)
	if err != nil {
		return "", err
	}

	if len(result.DiscountAutomaticBasicCreate.UserErrors) > 0 {
		return "", &APIError{
			Message:    "Shopify a refusé la création de la remise automatique",
			UserErrors: result.DiscountAutomaticBasicCreate.UserErrors,
		}
	}
	if result.DiscountAutomaticBasicCreate.AutomaticDiscountNode == nil {
		return "", &APIError{Message: "réponse sans automaticDiscountNode"}
	}

	log.Printf("✅ Remise automatique créée dans Shopify: %s", result.DiscountAutomaticBasicCreate.AutomaticDiscountNode.ID)
	return result.DiscountAutomaticBasicCreate.AutomaticDiscountNode.ID, nil
}

// ListFlashSaleDiscounts retourne toutes les remises (à code et automatiques)
// correspondant à la convention de titre de l'application
func (c *AdminClient) ListFlashSaleDiscounts(ctx context.Context) ([]DiscountNode, error) {
	var result struct {
		CodeDiscountNodes struct {
			Nodes []struct {
				ID           string `json:"id"`
				CodeDiscount struct {
					Title  string `json:"title"`
					Status string `json:"status"`
					Codes  struct {
						Nodes []struct {
							Code string `json:"code"`
						} `json:"nodes"`
					} `json:"codes"`
					StartsAt *time.Time `json:"startsAt"`
					EndsAt   *time.Time `json:"endsAt"`
				} `json:"codeDiscount"`
			} `json:"nodes"`
		} `json:"codeDiscountNodes"`
		AutomaticDiscountNodes struct {
			Nodes []struct {
				ID                string `json:"id"`
				AutomaticDiscount struct {
					Title    string     `json:"title"`
					Status   string     `json:"status"`
					StartsAt *time.Time `json:"startsAt"`
					EndsAt   *time.Time `json:"endsAt"`
				} `json:"automaticDiscount"`
			} `json:"nodes"`
		} `json:"automaticDiscountNodes"`
	}

	if err := c.graphql(ctx, discountStatusQuery, nil, &result); err != nil {
		return nil, err
	}

	nodes := make([]DiscountNode, 0, len(result.CodeDiscountNodes.Nodes)+len(result.AutomaticDiscountNodes.Nodes))
	for _, n := range result.CodeDiscountNodes.Nodes {
		node := DiscountNode{
			ID:       n.ID,
			Title:    n.CodeDiscount.Title,
			Status:   n.CodeDiscount.Status,
			StartsAt: n.CodeDiscount.StartsAt,
			EndsAt:   n.CodeDiscount.EndsAt,
		}
		if len(n.CodeDiscount.Codes.Nodes) > 0 {
			node.Code = n.CodeDiscount.Codes.Nodes[0].Code
		}
		nodes = append(nodes, node)
	}
	for _, n := range result.AutomaticDiscountNodes.Nodes {
		nodes = append(nodes, DiscountNode{
			ID:          n.ID,
			Title:       n.AutomaticDiscount.Title,
			Status:      n.AutomaticDiscount.Status,
			IsAutomatic: true,
			StartsAt:    n.AutomaticDiscount.StartsAt,
			EndsAt:      n.AutomaticDiscount.EndsAt,
		})
	}
	return nodes, nil
}
