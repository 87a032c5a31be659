package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// VerifyProxySignature valide la signature d'une requête passée par le proxy
// d'application Shopify : HMAC-SHA256 (hex) des paires k=v restantes, triées
// et concaténées sans séparateur, avec le secret de l'application comme clé.
func VerifyProxySignature(query url.Values, secret string) bool {
	signature := query.Get("signature")
	if signature == "" {
		return false
	}

	pairs := make([]string, 0, len(query))
	for key, values := range query {
		if key == "signature" {
			continue
		}
		pairs = append(pairs, key+"="+strings.Join(values, ","))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyOAuthHmac valide le paramètre hmac du callback OAuth : même principe
// que le proxy mais les paires triées sont jointes par "&"
func VerifyOAuthHmac(query url.Values, secret string) bool {
	signature := query.Get("hmac")
	if signature == "" {
		return false
	}

	pairs := make([]string, 0, len(query))
	for key, values := range query {
		if key == "hmac" {
			continue
		}
		pairs = append(pairs, key+"="+strings.Join(values, ","))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookHmac valide l'en-tête X-Shopify-Hmac-Sha256 d'un webhook :
// HMAC-SHA256 du corps brut, encodé en base64
func VerifyWebhookHmac(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
