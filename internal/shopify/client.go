package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2024-10"

// UserError - erreur structurée renvoyée par les mutations Shopify.
// Elle est conservée telle quelle pour être affichée au marchand.
type UserError struct {
	Field   []string `json:"field"`
	Code    string   `json:"code,omitempty"`
	Message string   `json:"message"`
}

// APIError - échec d'un appel à l'Admin API (réseau, GraphQL ou userErrors)
type APIError struct {
	Message    string
	UserErrors []UserError
}

func (e *APIError) Error() string {
	if len(e.UserErrors) > 0 {
		msgs := make([]string, 0, len(e.UserErrors))
		for _, ue := range e.UserErrors {
			msgs = append(msgs, ue.Message)
		}
		return e.Message + ": " + strings.Join(msgs, "; ")
	}
	return e.Message
}

// AdminClient - client GraphQL Admin API pour une boutique donnée.
// Construit explicitement à chaque requête avec le token de la boutique,
// jamais en singleton de module, pour rester remplaçable par un faux en test.
type AdminClient struct {
	Shop  string // ex: ma-boutique.myshopify.com
	Token string
	HTTP  *http.Client
}

// NewAdminClient crée un client pour une boutique et son token d'accès
func NewAdminClient(shop, token string) *AdminClient {
	return &AdminClient{
		Shop:  shop,
		Token: token,
		HTTP:  &http.Client{Timeout: 15 * time.Second},
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// graphql exécute une requête GraphQL et décode le champ data dans out
func (c *AdminClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return &APIError{Message: fmt.Sprintf("sérialisation de la requête impossible: %v", err)}
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.Shop, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.Token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("Shopify injoignable: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: fmt.Sprintf("lecture de la réponse impossible: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Message: fmt.Sprintf("Shopify a répondu %d: %s", resp.StatusCode, string(raw))}
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &APIError{Message: fmt.Sprintf("réponse GraphQL invalide: %v", err)}
	}

	if len(envelope.Errors) > 0 {
		return &APIError{Message: envelope.Errors[0].Message}
	}

	if envelope.Data == nil {
		return &APIError{Message: "réponse GraphQL sans champ data"}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &APIError{Message: fmt.Sprintf("décodage du champ data impossible: %v", err)}
		}
	}
	return nil
}
