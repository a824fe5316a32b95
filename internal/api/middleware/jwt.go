package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/yoockh/yoodefence/internal/utils"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// AuthConfig verifies HS256 tokens minted by the identity provider.
type AuthConfig struct {
	Secret   string
	Issuer   string // optional
	Audience string // optional
}

type claims struct {
	jwt.RegisteredClaims
	AppMetadata map[string]any `json:"app_metadata"` // {"role":"admin"}
}

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

func (a AuthConfig) verify(header string) (userID, role string, err error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "", errMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return "", "", errMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.Issuer))
	}
	if a.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.Audience))
	}

	cl := &claims{}
	tok, err := jwt.ParseWithClaims(raw, cl, func(*jwt.Token) (any, error) {
		return []byte(a.Secret), nil
	}, opts...)
	if err != nil || tok == nil || !tok.Valid || cl.Subject == "" {
		return "", "", errInvalidToken
	}

	role = "user"
	if v, ok := cl.AppMetadata["role"].(string); ok && v != "" {
		role = v
	}
	return cl.Subject, role, nil
}

// authHeader falls back to ?access_token= on websocket upgrades, where
// browsers cannot set headers.
func authHeader(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return h
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		if t := c.Query("access_token"); t != "" {
			return "Bearer " + t
		}
	}
	return ""
}

// JWTAuth rejects requests without a valid token and sets user_id and role.
func JWTAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apiError{
				Code:    utils.CodeInternal,
				Message: "auth is not configured",
			})
			return
		}
		userID, role, err := cfg.verify(authHeader(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
				Code:    utils.CodeUnauthorized,
				Message: err.Error(),
			})
			return
		}
		c.Set(CtxUserID, userID)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// OptionalJWTAuth sets user_id and role when a valid token is present and
// otherwise lets the request through untouched.
func OptionalJWTAuth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret != "" {
			if userID, role, err := cfg.verify(authHeader(c)); err == nil {
				c.Set(CtxUserID, userID)
				c.Set(CtxRole, role)
			}
		}
		c.Next()
	}
}
