package api

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const (
	defaultJWKSKeyTTL = 15 * time.Minute

	envAuthMode         = "AUTH_MODE" // none | hs256 | jwks
	envAuthSharedSecret = "AUTH_SHARED_SECRET"
	envAuthAudience     = "AUTH_AUDIENCE"
	envAuthIssuer       = "AUTH_ISSUER"
	envJWKSKeyTTL       = "AUTH_JWKS_KEY_TTL"

	// Owner used when auth is disabled; the tracker is personal, so a
	// single fixed board is the sensible default for local runs.
	localOwner = "local"
)

// Auth resolves board owners from bearer tokens. Three modes: disabled
// (every request maps to the local board), HS256 shared secret, and RS256
// against a remote JWKS.
type Auth struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	secret   []byte
	disabled bool

	parser   *jwt.Parser
	keyCache sync.Map
	keyTTL   time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates an Auth for RS256/JWKS validation. jwks may be nil only
// when a local mode is selected through the environment.
func NewAuth(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	a := &Auth{jwks: jwks, audience: audience, issuer: issuer}
	a.keyTTL = parseJWKSKeyTTL()

	switch strings.ToLower(os.Getenv(envAuthMode)) {
	case "", "jwks":
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	case "hs256":
		secret := os.Getenv(envAuthSharedSecret)
		if secret == "" {
			panic("AUTH_SHARED_SECRET must be set when AUTH_MODE=hs256")
		}
		a.secret = []byte(secret)
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	case "none":
		a.disabled = true
	default:
		panic("unsupported AUTH_MODE value")
	}
	return a
}

func parseJWKSKeyTTL() time.Duration {
	ttl := defaultJWKSKeyTTL
	if raw := os.Getenv(envJWKSKeyTTL); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			panic("invalid AUTH_JWKS_KEY_TTL")
		}
		ttl = parsed
	}
	return ttl
}

// UserIDFromAuthHeader extracts the board owner from an Authorization
// header value.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	if a.disabled {
		return localOwner, nil
	}
	token, err := bearerToken(h)
	if err != nil {
		return "", err
	}

	var parsed *jwt.Token
	if a.secret != nil {
		parsed, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.secret, nil
		})
	} else {
		parsed, err = a.parser.Parse(token, a.keyForToken)
	}
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, false) {
		return "", errors.New("invalid audience")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, false) {
		return "", errors.New("invalid issuer")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

// keyForToken resolves the RS256 verification key, caching it per kid so a
// burst of requests does not hammer the JWKS endpoint.
func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.jwks == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.jwks.Keyfunc(token)
	if err != nil {
		return nil, err
	}
	if kid != "" && a.keyTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(a.keyTTL)})
	}
	return key, nil
}
