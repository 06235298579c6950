package middleware

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"realtime-events/internal/config"
	"realtime-events/internal/models"
)

// userKey is where the authenticated user lives on the gin context.
const userKey = "auth.user"

// jwksTTL is how long cached signing keys are trusted before a refresh.
const jwksTTL = time.Hour

// jwk is one entry of the provider's key set.
type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// Auth validates Bearer tokens against the identity provider's published
// signing keys and attaches the resulting user to the request context.
type Auth struct {
	cfg *config.Config
	log *zap.Logger

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey // kid -> key
	lastUpdate time.Time
}

// NewAuth builds the middleware. Signing keys are fetched lazily on the
// first verified request and refreshed when the cache goes stale or an
// unknown kid shows up.
func NewAuth(cfg *config.Config, log *zap.Logger) *Auth {
	return &Auth{
		cfg:  cfg,
		log:  log,
		keys: make(map[string]*rsa.PublicKey),
	}
}

// Middleware authenticates the request. With verification skipped and no
// token supplied, the caller becomes a uuid-identified guest so the stack
// can run without an identity provider.
func (a *Auth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if a.cfg.SkipTokenVerification {
				c.Set(userKey, guestUser())
				c.Next()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		user, err := a.validateToken(parts[1])
		if err != nil {
			a.log.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// GetUser extracts the authenticated user set by the middleware.
func GetUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func guestUser() *models.User {
	now := time.Now()
	return &models.User{
		ID:       uuid.NewString(),
		Name:     "guest",
		IssuedAt: now,
	}
}

func (a *Auth) validateToken(tokenString string) (*models.User, error) {
	if a.cfg.SkipTokenVerification {
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("unexpected claims type")
		}
		return claimsToUser(claims), nil
	}

	token, err := jwt.Parse(tokenString, a.keyFor)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}

	// The provider issues both issuer formats depending on tenant setup.
	iss, _ := claims["iss"].(string)
	if iss != a.cfg.Issuer() && iss != a.cfg.IssuerV1() {
		return nil, fmt.Errorf("unexpected issuer %q", iss)
	}

	aud, _ := claims["aud"].(string)
	if aud != a.cfg.ClientID {
		return nil, fmt.Errorf("unexpected audience %q", aud)
	}

	return claimsToUser(claims), nil
}

// claimsToUser maps raw token claims onto the user model. Missing claims
// stay zero-valued; the object ID is the only claim the core relies on.
func claimsToUser(claims jwt.MapClaims) *models.User {
	uc := &models.UserClaims{}

	if v, ok := claims["oid"].(string); ok {
		uc.Oid = v
	}
	if v, ok := claims["email"].(string); ok {
		uc.Email = v
	}
	if v, ok := claims["preferred_username"].(string); ok {
		uc.PreferredUsername = v
	}
	if v, ok := claims["name"].(string); ok {
		uc.Name = v
	}
	if v, ok := claims["tid"].(string); ok {
		uc.Tid = v
	}
	if v, ok := claims["aud"].(string); ok {
		uc.Aud = v
	}
	if v, ok := claims["iss"].(string); ok {
		uc.Iss = v
	}
	if v, ok := claims["iat"].(float64); ok {
		uc.Iat = int64(v)
	}
	if v, ok := claims["exp"].(float64); ok {
		uc.Exp = int64(v)
	}
	if vs, ok := claims["roles"].([]any); ok {
		for _, r := range vs {
			if s, ok := r.(string); ok {
				uc.Roles = append(uc.Roles, s)
			}
		}
	}
	if vs, ok := claims["groups"].([]any); ok {
		for _, g := range vs {
			if s, ok := g.(string); ok {
				uc.Groups = append(uc.Groups, s)
			}
		}
	}

	return uc.ToUser()
}

// keyFor resolves the RSA key for the token's kid. The key set is fetched
// when the cache is stale or the kid is unknown (the provider rotates keys).
func (a *Auth) keyFor(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	kid, ok := token.Header["kid"].(string)
	if !ok {
		return nil, fmt.Errorf("token has no kid header")
	}

	a.mu.RLock()
	key, ok := a.keys[kid]
	fresh := time.Since(a.lastUpdate) <= jwksTTL
	a.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := a.refreshKeys(); err != nil {
		return nil, fmt.Errorf("refresh JWKS: %w", err)
	}

	a.mu.RLock()
	key, ok = a.keys[kid]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no key for kid %q", kid)
	}
	return key, nil
}

func (a *Auth) refreshKeys() error {
	resp, err := http.Get(a.cfg.JWKSURL())
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			a.log.Warn("skipping unusable JWK", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("no usable RSA keys in JWKS")
	}

	a.mu.Lock()
	a.keys = keys
	a.lastUpdate = time.Now()
	a.mu.Unlock()

	a.log.Info("JWKS refreshed", zap.Int("keys", len(keys)))
	return nil
}

// publicKey assembles an RSA public key from the JWK's modulus and exponent.
func (k jwk) publicKey() (*rsa.PublicKey, error) {
	n, err := decodeBase64(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := decodeBase64(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	exp := 0
	for _, b := range e {
		exp = exp<<8 | int(b)
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}

// decodeBase64 accepts the URL-safe form JWKs are defined with and the
// padded standard form some providers emit anyway.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
