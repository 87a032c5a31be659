package handlers

import (
	"log"
	"net/http"
	"os"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flashoff_back_end/internal/config"
	"flashoff_back_end/internal/shopify"
)

var shopDomainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

const oauthSessionName = "flashoff_oauth"

// BeginInstall démarre l'installation OAuth : on vérifie le domaine de la
// boutique, on pose un nonce anti-CSRF en cookie et on envoie le marchand
// sur la page d'autorisation Shopify
func (a *API) BeginInstall(c *gin.Context) {
	shop := c.Query("shop")
	if !shopDomainRe.MatchString(shop) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre shop invalide"})
		return
	}

	state := uuid.New().String()
	session, _ := a.sessions.Get(c.Request, oauthSessionName)
	session.Values["state"] = state
	session.Values["shop"] = shop
	session.Options.MaxAge = 300
	session.Options.HttpOnly = true
	session.Options.Secure = true
	if err := session.Save(c.Request, c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session OAuth impossible"})
		return
	}

	url := config.ShopifyOAuthConfig(shop).AuthCodeURL(state)
	log.Printf("🚀 Installation démarrée pour %s", shop)
	c.Redirect(http.StatusFound, url)
}

// OAuthCallback termine l'installation : vérification du HMAC et du nonce,
// échange du code contre un token d'accès, puis sauvegarde du token
func (a *API) OAuthCallback(c *gin.Context) {
	query := c.Request.URL.Query()

	if !shopify.VerifyOAuthHmac(query, os.Getenv("SHOPIFY_API_SECRET")) {
		log.Printf("❌ Callback OAuth avec HMAC invalide depuis %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "HMAC invalide"})
		return
	}

	shop := query.Get("shop")
	if !shopDomainRe.MatchString(shop) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre shop invalide"})
		return
	}

	session, _ := a.sessions.Get(c.Request, oauthSessionName)
	if state, _ := session.Values["state"].(string); state == "" || state != query.Get("state") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "State OAuth invalide"})
		return
	}
	if sessionShop, _ := session.Values["shop"].(string); sessionShop != shop {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Boutique inattendue"})
		return
	}

	// le nonce est à usage unique
	session.Options.MaxAge = -1
	session.Save(c.Request, c.Writer)

	token, err := config.ShopifyOAuthConfig(shop).Exchange(c.Request.Context(), query.Get("code"))
	if err != nil {
		log.Printf("❌ Échange du code OAuth échoué pour %s: %v", shop, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Échange du code OAuth échoué"})
		return
	}

	if err := a.Tokens.Save(c.Request.Context(), shop, token.AccessToken); err != nil {
		log.Printf("❌ Sauvegarde du token impossible pour %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sauvegarde du token impossible"})
		return
	}

	log.Printf("✅ Application installée pour %s", shop)
	c.Redirect(http.StatusFound, "https://"+shop+"/admin/apps/"+os.Getenv("SHOPIFY_APP_HANDLE"))
}
