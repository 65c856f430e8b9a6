// Package google verifies Google Sign-In ID tokens against Google's published
// signing keys.
package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/authcore/provider"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultJWKSURL serves Google's current ID token signing keys.
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

const defaultKeyTTL = time.Hour

// MinRefetchInterval bounds how often an unknown kid may force a JWKS fetch
// while the cached set is still fresh.
const MinRefetchInterval = 30 * time.Second

var validIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

var (
	ErrNoClientIDs     = errors.New("google: at least one client id is required")
	ErrInvalidIDToken  = errors.New("google: invalid id token")
	ErrKeysUnavailable = errors.New("google: signing keys unavailable")
	ErrUnverifiedEmail = errors.New("google: email address not verified")
)

// Config configures a Verifier.
type Config struct {
	ClientIDs  []string
	JWKSURL    string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Verifier checks Google ID tokens against the published JWKS. Keys are
// cached for the max-age Google advertises. A token naming an unknown kid
// forces at most one refetch per MinRefetchInterval.
type Verifier struct {
	clientIDs []string
	jwksURL   string
	client    *http.Client
	now       func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

type idTokenClaims struct {
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	Name          string   `json:"name"`
	Picture       string   `json:"picture"`
	jwt.RegisteredClaims
}

// flexBool accepts both true and "true"; Google has emitted both.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

func NewVerifier(cfg Config) (*Verifier, error) {
	ids := make([]string, 0, len(cfg.ClientIDs))
	for _, id := range cfg.ClientIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNoClientIDs
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = DefaultJWKSURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{
		clientIDs: ids,
		jwksURL:   cfg.JWKSURL,
		client:    cfg.HTTPClient,
		now:       cfg.Now,
	}, nil
}

// Verify validates signature, audience, issuer and expiry of idToken and
// returns the identity it asserts.
func (v *Verifier) Verify(ctx context.Context, idToken string) (provider.Identity, error) {
	claims := &idTokenClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims,
		func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			return v.key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, ErrKeysUnavailable) {
			return provider.Identity{}, err
		}
		return provider.Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	if !slices.Contains(validIssuers, claims.Issuer) {
		return provider.Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	if !slices.ContainsFunc(claims.Audience, func(aud string) bool {
		return slices.Contains(v.clientIDs, aud)
	}) {
		return provider.Identity{}, fmt.Errorf("%w: audience mismatch", ErrInvalidIDToken)
	}
	if claims.Subject == "" {
		return provider.Identity{}, fmt.Errorf("%w: missing sub", ErrInvalidIDToken)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return provider.Identity{}, provider.ErrEmailRequired
	}
	if !claims.EmailVerified {
		return provider.Identity{}, fmt.Errorf("%w: %w", provider.ErrEmailRequired, ErrUnverifiedEmail)
	}

	return provider.Identity{
		Provider: provider.Google,
		Subject:  claims.Subject,
		Email:    email,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}

func (v *Verifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := v.now()
	v.mu.RLock()
	k, ok := v.keys[kid]
	fresh := now.Before(v.expiresAt)
	recent := now.Sub(v.fetchedAt) < MinRefetchInterval
	v.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}
	if fresh && recent {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if k, ok := v.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("unknown key id %q", kid)
}

func (v *Verifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrKeysUnavailable, resp.StatusCode)
	}

	var set struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("%w: %v", ErrKeysUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		pub, err := rsaKey(jwk.N, jwk.E)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = pub
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: empty key set", ErrKeysUnavailable)
	}

	now := v.now()
	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = now
	v.expiresAt = now.Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

func rsaKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() > 1<<31-1 || exp.Int64() < 3 {
		return nil, errors.New("bad exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || secs <= 0 {
			break
		}
		return time.Duration(secs) * time.Second
	}
	return defaultKeyTTL
}
