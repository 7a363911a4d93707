package middleware

import (
	"crypto/hmac"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meshboard/meshgate/internal/pkg/jwt"
	"github.com/meshboard/meshgate/internal/pkg/response"
)

const (
	ContextAuthKey   = "auth_context"
	ContextUserIDKey = "user_id"

	HeaderMeshSecret = "x-mesh-secret"
	HeaderBotSecret  = "x-bot-control-secret"
)

// Identity is the verified-user facet of an AuthContext.
type Identity struct {
	UserID   string
	TenantID string
	Roles    []string
}

// AuthContext classifies one request into the trust tiers it satisfies. The
// facets are independent; a single request can hold several at once.
type AuthContext struct {
	ServiceTrusted    bool
	BotControlTrusted bool
	User              *Identity
}

type GateConfig struct {
	MeshSecret string
	BotSecret  string
	JWTSecret  []byte
}

// Gate inspects headers and attaches an AuthContext to the request. It never
// aborts: a malformed bearer token or wrong secret just leaves that facet
// unset, and the per-route guards decide what is required.
func Gate(cfg GateConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := &AuthContext{}
		auth.ServiceTrusted = secretMatches(c.GetHeader(HeaderMeshSecret), cfg.MeshSecret)
		auth.BotControlTrusted = secretMatches(c.GetHeader(HeaderBotSecret), cfg.BotSecret)
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := jwt.Verify(token, cfg.JWTSecret); err == nil {
				auth.User = &Identity{
					UserID:   claims.Sub,
					TenantID: claims.Tenant,
					Roles:    claims.Roles,
				}
				c.Set(ContextUserIDKey, claims.Sub)
			}
		}
		c.Set(ContextAuthKey, auth)
		c.Next()
	}
}

func GetAuth(c *gin.Context) *AuthContext {
	value, _ := c.Get(ContextAuthKey)
	if auth, ok := value.(*AuthContext); ok {
		return auth
	}
	return &AuthContext{}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAuth(c).User == nil {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireService() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAuth(c).ServiceTrusted {
			response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireBotControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetAuth(c).BotControlTrusted {
			response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireServiceOrBotControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := GetAuth(c)
		if !auth.ServiceTrusted && !auth.BotControlTrusted {
			response.Error(c, http.StatusForbidden, "forbidden", "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func secretMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(want))
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
