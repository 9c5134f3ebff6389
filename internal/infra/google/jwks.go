package google

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

const keyCacheTTL = time.Hour

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Verifier validates Google ID tokens against the issuer's published JWKS.
// Keys are cached and refreshed on unknown kid, so a key rotation does not
// require a restart.
type Verifier struct {
	issuer     string
	clientID   string
	mu         sync.RWMutex
	cache      map[string]*rsa.PublicKey
	fetched    time.Time
	httpClient *http.Client
}

func NewVerifier(issuer, clientID string) *Verifier {
	return &Verifier{
		issuer:     issuer,
		clientID:   clientID,
		cache:      make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// VerifyIDToken checks the signature, issuer, audience and expiry of a Google
// ID token and returns its claims.
func (v *Verifier) VerifyIDToken(ctx context.Context, token string) (map[string]any, error) {
	header, payload, signature, signingInput, err := parseJWT(token)
	if err != nil {
		return nil, err
	}
	if err := v.ensureKeys(ctx); err != nil {
		return nil, err
	}
	kid, _ := header["kid"].(string)
	key, ok := v.keyFor(kid)
	if !ok {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		key, ok = v.keyFor(kid)
		if !ok {
			return nil, errors.New("unknown kid")
		}
	}
	hashed := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, hashed[:], signature); err != nil {
		return nil, err
	}
	if !issuerMatches(payload["iss"], v.issuer) {
		return nil, errors.New("invalid issuer")
	}
	if !audienceMatches(payload["aud"], v.clientID) {
		return nil, errors.New("invalid audience")
	}
	if exp, ok := payload["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, errors.New("token expired")
		}
	}
	if verified, ok := payload["email_verified"].(bool); ok && !verified {
		return nil, errors.New("email not verified")
	}
	return payload, nil
}

// issuerMatches accepts the issuer with or without the https scheme; Google
// emits both forms.
func issuerMatches(iss any, expected string) bool {
	got, ok := iss.(string)
	if !ok {
		return false
	}
	return got == expected || "https://"+got == expected || got == "https://"+expected
}

// audienceMatches handles the aud claim being either a single string or an
// array of audiences.
func audienceMatches(aud any, clientID string) bool {
	switch v := aud.(type) {
	case string:
		return v == clientID
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == clientID {
				return true
			}
		}
	case []string:
		for _, s := range v {
			if s == clientID {
				return true
			}
		}
	}
	return false
}

func (v *Verifier) ensureKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := time.Since(v.fetched) < keyCacheTTL && len(v.cache) > 0
	v.mu.RUnlock()
	if fresh {
		return nil
	}
	return v.refresh(ctx)
}

func (v *Verifier) refresh(ctx context.Context) error {
	jwksURI, err := v.discoverJWKSURI(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURI, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return err
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("no keys fetched")
	}
	v.mu.Lock()
	v.cache = keys
	v.fetched = time.Now()
	v.mu.Unlock()
	return nil
}

func (v *Verifier) discoverJWKSURI(ctx context.Context) (string, error) {
	issuer := v.issuer
	if !strings.HasPrefix(issuer, "http") {
		issuer = "https://" + issuer
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return "", err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var cfg struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return "", err
	}
	if cfg.JWKSURI == "" {
		return "", errors.New("issuer config has no jwks_uri")
	}
	return cfg.JWKSURI, nil
}

func (v *Verifier) keyFor(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pk, ok := v.cache[kid]
	return pk, ok
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func parseJWT(token string) (map[string]any, map[string]any, []byte, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, nil, "", errors.New("invalid token")
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, nil, "", err
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, nil, "", err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, nil, "", err
	}
	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, nil, "", err
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, nil, nil, "", err
	}
	return header, payload, signature, parts[0] + "." + parts[1], nil
}
