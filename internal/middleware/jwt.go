package middleware

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// VerifySessionToken valide un session token embarqué Shopify (JWT HS256
// signé avec le secret de l'app) et retourne le domaine de la boutique
// extrait du claim "dest".
func VerifySessionToken(tokenString string, secret []byte, apiKey string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("claims invalides")
	}

	// l'audience doit être la clé API de l'app
	aud, err := claims.GetAudience()
	if err != nil || len(aud) == 0 || aud[0] != apiKey {
		return "", fmt.Errorf("audience inattendue")
	}

	dest, ok := claims["dest"].(string)
	if !ok || dest == "" {
		return "", fmt.Errorf("dest manquant")
	}

	shop := strings.TrimPrefix(dest, "https://")
	shop = strings.TrimSuffix(shop, "/")
	if !strings.HasSuffix(shop, ".myshopify.com") {
		return "", fmt.Errorf("boutique invalide dans dest: %s", dest)
	}
	return shop, nil
}

// AuthRequired protège les routes admin de l'app embarquée : chaque requête
// porte un session token Shopify en Bearer. La boutique vérifiée est déposée
// dans le contexte sous "shop".
func AuthRequired() gin.HandlerFunc {
	secret := []byte(os.Getenv("SHOPIFY_API_SECRET"))
	apiKey := os.Getenv("SHOPIFY_API_KEY")

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Println("❌ Pas de header Authorization")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token manquant"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Printf("❌ Format Authorization invalide: %v parties", len(parts))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Format Authorization invalide"})
			c.Abort()
			return
		}

		shop, err := VerifySessionToken(parts[1], secret, apiKey)
		if err != nil {
			log.Printf("❌ Session token refusé: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token invalide"})
			c.Abort()
			return
		}

		c.Set("shop", shop)
		c.Next()
	}
}
