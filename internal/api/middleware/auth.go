package middleware

import (
	"context"
	"errors"
	"net/http"

	"blog_api/internal/common"
	"blog_api/internal/common/security"
	"blog_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const ActorCtxKey contextKey = "actor"

// actorFromToken resolves the token jwtauth.Verifier left in the context.
func actorFromToken(ctx context.Context) (model.Actor, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return model.Actor{}, err
	}
	if token == nil {
		return model.Actor{}, jwtauth.ErrNoTokenFound
	}
	return security.ActorFromClaims(claims)
}

// Authenticator rejects requests without a valid bearer token and stores the
// token's actor in the request context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromToken(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ActorCtxKey, actor)))
	})
}

// OptionalActor stores the actor when a valid token is present and lets
// anonymous requests through untouched.
func OptionalActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor, err := actorFromToken(r.Context()); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), ActorCtxKey, actor))
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly must run after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.IsAdmin() {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ActorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ActorCtxKey).(model.Actor)
	return actor, ok
}
