package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "fiscaltask/pkg/domain"
	dErrors "fiscaltask/pkg/domain-errors"
	"fiscaltask/pkg/platform/httputil"
	"fiscaltask/pkg/requestcontext"
)

// ActorValidator validates a bearer token and returns the operator it names.
type ActorValidator interface {
	ValidateActor(tokenString string) (id.UserID, error)
}

// RequireBearer rejects requests without a valid operator token and stores
// the operator as the request actor.
func RequireBearer(validator ActorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid Authorization header"))
				return
			}

			actor, err := validator.ValidateActor(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, actor)))
		})
	}
}
