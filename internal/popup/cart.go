package popup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CartFetcher expose le nombre d'articles du panier du visiteur
type CartFetcher interface {
	ItemCount(ctx context.Context) (int, error)
}

// HTTPCartFetcher interroge l'endpoint AJAX /cart.js de la boutique
type HTTPCartFetcher struct {
	Shop string // ex: boutique.myshopify.com
	HTTP *http.Client
}

func NewHTTPCartFetcher(shop string) *HTTPCartFetcher {
	return &HTTPCartFetcher{
		Shop: shop,
		HTTP: &http.Client{Timeout: 5 * time.Second},
	}
}

func (f *HTTPCartFetcher) ItemCount(ctx context.Context) (int, error) {
	url := fmt.Sprintf("https://%s/cart.js", f.Shop)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cart.js a répondu %d", resp.StatusCode)
	}

	var cart struct {
		ItemCount int `json:"item_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return 0, err
	}
	return cart.ItemCount, nil
}
