package authmw

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// KeycloakAuth validates bearer tokens against the realm's JWKS.
type KeycloakAuth struct {
	Issuer   string
	Audience string
	ClientID string

	JWKS *keyfunc.JWKS
	// optional clock skew
	Leeway time.Duration
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	ID       string
	Email    string
	Username string
}

const principalKey = "auth.principal"

// NewKeycloakAuth builds the authenticator once at startup; the JWKS is
// fetched and refreshed in the background, not per request.
func NewKeycloakAuth(jwksURL, issuer, audience, clientID string) (*KeycloakAuth, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute * 5,
		RefreshTimeout:   time.Second * 10,
	})
	if err != nil {
		return nil, err
	}

	return &KeycloakAuth{
		Issuer:   issuer,
		Audience: audience,
		ClientID: clientID,
		JWKS:     jwks,
		Leeway:   30 * time.Second,
	}, nil
}

type kcClaims struct {
	jwt.RegisteredClaims

	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	Name              string `json:"name"`
}

// RequireAuth rejects requests without a valid token and stores the
// resolved Principal on the context. Authorization beyond "is a known user"
// lives in the project membership checks, not here.
func (a *KeycloakAuth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := extractAccessToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

			return
		}

		claims := &kcClaims{}
		_, err = jwt.ParseWithClaims(tokenStr, claims, a.JWKS.Keyfunc,
			jwt.WithIssuer(a.Issuer),
			jwt.WithAudience(a.Audience),
			jwt.WithLeeway(a.Leeway),
			jwt.WithValidMethods([]string{"RS256"}),
		)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		c.Set(principalKey, Principal{
			ID:       claims.Subject,
			Email:    claims.Email,
			Username: claims.PreferredUsername,
		})

		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by RequireAuth, or false
// when the request was not authenticated.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}

	return p, true
}

func extractAccessToken(c *gin.Context) (string, error) {
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:]), nil
	}

	// cookie fallback for the browser client
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", errors.New("missing access token")
}
