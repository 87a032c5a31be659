package shopify

import (
	"context"
	"encoding/json"
	"log"
)

// Les réglages sont recopiés dans un metafield de la boutique pour que
// l'extension de thème puisse les lire sans passer par le proxy d'application
const (
	metafieldNamespace = "flashoff"
	metafieldKey       = "settings"
)

const shopIDQuery = `
query getShopId {
  shop {
    id
  }
}`

const metafieldsSetMutation = `
mutation metafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      namespace
    }
    userErrors {
      field
      code
      message
    }
  }
}`

// ShopID retourne l'identifiant GraphQL de la boutique (gid://shopify/Shop/...)
func (c *AdminClient) ShopID(ctx context.Context) (string, error) {
	var result struct {
		Shop struct {
			ID string `json:"id"`
		} `json:"shop"`
	}
	if err := c.graphql(ctx, shopIDQuery, nil, &result); err != nil {
		return "", err
	}
	return result.Shop.ID, nil
}

// SaveSettingsMetafield écrit les réglages (JSON) dans le metafield
// flashoff.settings de la boutique via metafieldsSet (création ou mise à jour)
func (c *AdminClient) SaveSettingsMetafield(ctx context.Context, settings any) error {
	shopID, err := c.ShopID(ctx)
	if err != nil {
		return err
	}

	value, err := json.Marshal(settings)
	if err != nil {
		return &APIError{Message: "sérialisation des réglages impossible: " + err.Error()}
	}

	variables := map[string]any{
		"metafields": []map[string]any{
			{
				"namespace": metafieldNamespace,
				"key":       metafieldKey,
				"ownerId":   shopID,
				"type":      "json",
				"value":     string(value),
			},
		},
	}

	var result struct {
		MetafieldsSet struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsSet"`
	}
	if err := c.graphql(ctx, metafieldsSetMutation, variables, &result); err != nil {
		return err
	}
	if len(result.MetafieldsSet.UserErrors) > 0 {
		return &APIError{
			Message:    "Shopify a refusé l'écriture du metafield",
			UserErrors: result.MetafieldsSet.UserErrors,
		}
	}

	log.Printf("✅ Metafield %s.%s mis à jour pour %s", metafieldNamespace, metafieldKey, c.Shop)
	return nil
}
