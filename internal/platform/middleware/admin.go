package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
)

// Administrative routes are gated by an HMAC-signed bearer token carrying
// role=admin and the administrator's actor address in the subject claim.
// Authorization against the per-registry administrator happens in the
// services; this middleware only authenticates the caller.

type contextKeyAdminActor struct{}

var ContextKeyAdminActor = contextKeyAdminActor{}

// AdminActor retrieves the authenticated admin actor from the context.
func AdminActor(ctx context.Context) id.ActorID {
	actor, ok := ctx.Value(ContextKeyAdminActor).(id.ActorID)
	if !ok {
		return ""
	}
	return actor
}

// RequireAdmin validates the bearer token and stores the caller's actor id in
// the request context. Missing or invalid tokens get 401 without detail.
func RequireAdmin(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				if logger != nil {
					logger.WarnContext(r.Context(), "admin token rejected", "error", err)
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || claims["role"] != "admin" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			subject, _ := claims.GetSubject()
			actor, err := id.ParseActorID(subject)
			if err != nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAdminActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MintAdminToken issues a short-lived admin token. Used by operator tooling
// and handler tests.
func MintAdminToken(secret string, actor id.ActorID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actor.String(),
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
