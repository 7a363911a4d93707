package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/meshboard/meshgate/internal/pkg/jwt"
)

var testGate = GateConfig{
	MeshSecret: "mesh-secret-value",
	BotSecret:  "bot-secret-value",
	JWTSecret:  []byte("jwt-secret-value"),
}

func gateContext(t *testing.T, headers map[string]string) (*gin.Context, *AuthContext) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/healthz", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	Gate(testGate)(c)
	return c, GetAuth(c)
}

func TestGateNoHeaders(t *testing.T) {
	c, auth := gateContext(t, nil)
	require.False(t, c.IsAborted())
	require.False(t, auth.ServiceTrusted)
	require.False(t, auth.BotControlTrusted)
	require.Nil(t, auth.User)
}

func TestGateServiceSecret(t *testing.T) {
	_, auth := gateContext(t, map[string]string{HeaderMeshSecret: "mesh-secret-value"})
	require.True(t, auth.ServiceTrusted)
	require.False(t, auth.BotControlTrusted)

	_, auth = gateContext(t, map[string]string{HeaderMeshSecret: "wrong"})
	require.False(t, auth.ServiceTrusted)
}

func TestGateBotSecret(t *testing.T) {
	_, auth := gateContext(t, map[string]string{HeaderBotSecret: "bot-secret-value"})
	require.True(t, auth.BotControlTrusted)
	require.False(t, auth.ServiceTrusted)
}

func TestGateUnconfiguredSecretNeverMatches(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set(HeaderMeshSecret, "")
	Gate(GateConfig{JWTSecret: []byte("x")})(c)
	require.False(t, GetAuth(c).ServiceTrusted)
}

func TestGateBearerToken(t *testing.T) {
	token, err := jwt.Mint("user-9", "tenant-b", []string{"OWNER"}, testGate.JWTSecret, time.Hour)
	require.NoError(t, err)

	c, auth := gateContext(t, map[string]string{"Authorization": "Bearer " + token})
	require.False(t, c.IsAborted())
	require.NotNil(t, auth.User)
	require.Equal(t, "user-9", auth.User.UserID)
	require.Equal(t, "tenant-b", auth.User.TenantID)
	require.Equal(t, []string{"OWNER"}, auth.User.Roles)
}

func TestGateBadBearerLeavesUserUnset(t *testing.T) {
	expired, err := jwt.Mint("user-9", "tenant-b", nil, testGate.JWTSecret, -time.Minute)
	require.NoError(t, err)

	for _, header := range []string{
		"Bearer not-a-jwt",
		"Bearer " + expired,
		"Basic dXNlcjpwYXNz",
		"Bearer ",
	} {
		c, auth := gateContext(t, map[string]string{"Authorization": header})
		require.False(t, c.IsAborted(), "header %q must not abort", header)
		require.Nil(t, auth.User, "header %q", header)
	}
}

func TestGateIndependentFacets(t *testing.T) {
	token, err := jwt.Mint("user-9", "tenant-b", nil, testGate.JWTSecret, time.Hour)
	require.NoError(t, err)

	_, auth := gateContext(t, map[string]string{
		HeaderMeshSecret: "mesh-secret-value",
		HeaderBotSecret:  "bot-secret-value",
		"Authorization":  "Bearer " + token,
	})
	require.True(t, auth.ServiceTrusted)
	require.True(t, auth.BotControlTrusted)
	require.NotNil(t, auth.User)
}

func runGuard(t *testing.T, guard gin.HandlerFunc, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	Gate(testGate)(c)
	guard(c)
	return c, rec
}

func TestRequireUser(t *testing.T) {
	c, rec := runGuard(t, RequireUser(), nil)
	require.True(t, c.IsAborted())
	require.Equal(t, 401, rec.Code)

	token, err := jwt.Mint("user-1", "t", nil, testGate.JWTSecret, time.Hour)
	require.NoError(t, err)
	c, _ = runGuard(t, RequireUser(), map[string]string{"Authorization": "Bearer " + token})
	require.False(t, c.IsAborted())
}

func TestRequireServiceOrBotControl(t *testing.T) {
	c, rec := runGuard(t, RequireServiceOrBotControl(), nil)
	require.True(t, c.IsAborted())
	require.Equal(t, 403, rec.Code)

	c, _ = runGuard(t, RequireServiceOrBotControl(), map[string]string{HeaderMeshSecret: "mesh-secret-value"})
	require.False(t, c.IsAborted())

	c, _ = runGuard(t, RequireServiceOrBotControl(), map[string]string{HeaderBotSecret: "bot-secret-value"})
	require.False(t, c.IsAborted())
}

func TestRequireServiceAndBotControl(t *testing.T) {
	c, _ := runGuard(t, RequireService(), map[string]string{HeaderMeshSecret: "mesh-secret-value"})
	require.False(t, c.IsAborted())
	c, _ = runGuard(t, RequireService(), map[string]string{HeaderBotSecret: "bot-secret-value"})
	require.True(t, c.IsAborted())

	c, _ = runGuard(t, RequireBotControl(), map[string]string{HeaderBotSecret: "bot-secret-value"})
	require.False(t, c.IsAborted())
	c, _ = runGuard(t, RequireBotControl(), map[string]string{HeaderMeshSecret: "mesh-secret-value"})
	require.True(t, c.IsAborted())
}
