package config

import (
	"os"

	"golang.org/x/oauth2"
)

// ShopifyOAuthConfig construit la configuration OAuth pour une boutique
// donnée : les endpoints Shopify sont par boutique, jamais globaux
func ShopifyOAuthConfig(shop string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("SHOPIFY_API_KEY"),
		ClientSecret: os.Getenv("SHOPIFY_API_SECRET"),
		RedirectURL:  os.Getenv("APP_URL") + "/api/auth/callback",
		Scopes:       []string{"read_discounts", "write_discounts"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://" + shop + "/admin/oauth/authorize",
			TokenURL: "https://" + shop + "/admin/oauth/access_token",
		},
	}
}
