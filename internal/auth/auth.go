// Package auth establishes the principal on whose behalf a request runs.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"

	"github.com/flameborn/validator/internal/config"
	"github.com/flameborn/validator/internal/models"
)

const (
	DevWalletHeader = "X-Dev-Wallet"

	SourceToken     = "token"
	SourceDevHeader = "dev-header"
	SourceClaimed   = "claimed"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenDisabled = errors.New("bearer tokens are not accepted by this deployment")
)

type Claims struct {
	Wallet string   `json:"wallet,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Verifier resolves principals from bearer tokens and, in development, from
// the X-Dev-Wallet header.
type Verifier struct {
	secret   []byte
	allowDev bool
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret), allowDev: cfg.AllowDevPrincipal}
}

// TokenRequired reports whether callers must present a bearer token.
func (v *Verifier) TokenRequired() bool {
	return len(v.secret) > 0
}

func (v *Verifier) DevPrincipalAllowed() bool {
	return v.allowDev
}

func (v *Verifier) IssueToken(wallet string, roles []string, ttl time.Duration) (string, error) {
	if !v.TokenRequired() {
		return "", ErrTokenDisabled
	}
	now := time.Now()
	claims := &Claims{
		Wallet: wallet,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) ParseToken(tokenStr string) (*Claims, error) {
	if !v.TokenRequired() {
		return nil, ErrTokenDisabled
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Wallet == "" {
		claims.Wallet = claims.Subject
	}
	if claims.Wallet == "" {
		return nil, fmt.Errorf("%w: no wallet claim", ErrInvalidToken)
	}
	return claims, nil
}

// Resolve extracts the principal carried by r. ok is false when the request
// carries no credentials at all.
func (v *Verifier) Resolve(r *http.Request) (principal models.Principal, ok bool, err error) {
	tokenStr, err := request.BearerExtractor{}.ExtractToken(r)
	switch {
	case err == nil:
		claims, err := v.ParseToken(tokenStr)
		if err != nil {
			return models.Principal{}, false, err
		}
		return models.Principal{Wallet: claims.Wallet, Source: SourceToken}, true, nil
	case !errors.Is(err, request.ErrNoTokenInRequest):
		return models.Principal{}, false, err
	}

	if v.allowDev {
		if wallet := strings.TrimSpace(r.Header.Get(DevWalletHeader)); wallet != "" {
			return models.Principal{Wallet: wallet, Source: SourceDevHeader}, true, nil
		}
	}
	return models.Principal{}, false, nil
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(models.Principal)
	return p, ok
}

// Middleware stores the resolved principal on the request context. Requests
// without credentials pass through; invalid credentials are rejected with 401.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok, err := v.Resolve(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error(), "code": "UNAUTHENTICATED"})
			return
		}
		if ok {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}
