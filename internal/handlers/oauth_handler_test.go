package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flashoff_back_end/internal/settings"
)

func newInstallTestContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestBeginInstallRedirectsWithSignedStateCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("SHOPIFY_API_KEY", "test-key")
	t.Setenv("APP_URL", "https://flashoff.example.com")

	api := NewAPI(settings.NewMemoryStore(), nil, nil, nil, "session-secret")

	c, w := newInstallTestContext(t, "/api/auth?shop=demo.myshopify.com")
	api.BeginInstall(c)

	require.Equal(t, http.StatusFound, w.Code)
	loc := w.Header().Get("Location")
	assert.Contains(t, loc, "https://demo.myshopify.com/admin/oauth/authorize")
	assert.Contains(t, loc, "client_id=test-key")

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// le nonce doit être relisible avec le secret injecté, et figurer dans
	// l'URL d'autorisation
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	session, err := api.sessions.Get(req, oauthSessionName)
	require.NoError(t, err)
	state, _ := session.Values["state"].(string)
	require.NotEmpty(t, state)
	assert.Contains(t, loc, "state="+state)
	assert.Equal(t, "demo.myshopify.com", session.Values["shop"])

	// un store signé avec une autre clé ne relit pas le cookie : un nonce
	// forgé ne passe pas la vérification
	other := sessions.NewCookieStore([]byte("autre-secret"))
	req2 := httptest.NewRequest(http.MethodGet, "/api/auth/callback", nil)
	for _, ck := range cookies {
		req2.AddCookie(ck)
	}
	bad, err := other.Get(req2, oauthSessionName)
	assert.Error(t, err)
	_, hasState := bad.Values["state"]
	assert.False(t, hasState)
}

func TestBeginInstallRejectsBadShopDomain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := NewAPI(settings.NewMemoryStore(), nil, nil, nil, "session-secret")

	for _, shop := range []string{"", "evil.com", "demo.myshopify.com.evil.com", "https://demo.myshopify.com"} {
		c, w := newInstallTestContext(t, "/api/auth?shop="+shop)
		api.BeginInstall(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, "shop %q", shop)
	}
}
