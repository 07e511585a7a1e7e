package keycloak

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/tasknest/backend/domain"
)

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// Resolver verifies bearer tokens against the identity provider's published
// signing keys. Keys are fetched on first use and cached for the life of the
// process; a failed fetch is retried on the next request, never cached.
type Resolver struct {
	certsURL string
	client   *http.Client
	logger   *zap.Logger

	mu     sync.Mutex
	loaded bool
	keys   map[string]*rsa.PublicKey
}

// NewResolver builds a Resolver for the given JWKS endpoint.
func NewResolver(certsURL string, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		certsURL: certsURL,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Resolve verifies the token and extracts the principal from its
// preferred_username and realm_access.roles claims.
func (r *Resolver) Resolve(tokenString string) (*domain.Principal, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthorized
	}

	token, err := jwt.Parse(tokenString, r.keyfunc, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeUnavailable) {
			return nil, err
		}
		r.logger.Warn("jwt validation failed", zap.Error(err))
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	username, _ := claims["preferred_username"].(string)
	if username == "" {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "invalid token payload")
	}

	principal := &domain.Principal{Username: username, Roles: realmRoles(claims)}
	r.logger.Debug("authenticated principal", zap.String("username", username))
	return principal, nil
}

// realmRoles pulls the role labels out of the realm_access claim.
func realmRoles(claims jwt.MapClaims) []string {
	realmAccess, _ := claims["realm_access"].(map[string]interface{})
	rawRoles, _ := realmAccess["roles"].([]interface{})

	roles := make([]string, 0, len(rawRoles))
	for _, raw := range rawRoles {
		if role, ok := raw.(string); ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func (r *Resolver) keyfunc(token *jwt.Token) (interface{}, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("token header missing kid")
	}

	keys, err := r.loadKeys()
	if err != nil {
		return nil, err
	}

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
	return key, nil
}

func (r *Resolver) loadKeys() (map[string]*rsa.PublicKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.keys, nil
	}

	resp, err := r.client.Get(r.certsURL)
	if err != nil {
		r.logger.Error("jwks fetch failed", zap.String("url", r.certsURL), zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "authentication service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("jwks fetch failed", zap.String("url", r.certsURL), zap.Int("status", resp.StatusCode))
		return nil, domain.NewError(domain.ErrCodeUnavailable, "authentication service unavailable")
	}

	var doc jwks
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "authentication service unavailable", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k)
		if err != nil {
			r.logger.Warn("skipping unparsable jwk", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		keys[k.Kid] = pub
	}

	r.keys = keys
	r.loaded = true
	r.logger.Info("jwks loaded", zap.Int("keys", len(keys)))
	return keys, nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("zero exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
