package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/volticar/volticar/internal/common/httpx"
	"github.com/volticar/volticar/internal/gamesrv/config"
	"github.com/volticar/volticar/internal/gamesrv/gamecommon"
)

// TestUserIDHeader carries the player identity when the internal test token
// is used. Honored only in test mode.
const TestUserIDHeader = "X-Volticar-Test-User"

const defaultTestUserID = "test-user"

// PlayerAuthMiddleware authenticates the player from the Authorization bearer
// token and stores the user ID in the request context.
func PlayerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpx.ErrUnAuthorized("missing authorization header").Send(w)
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			httpx.ErrUnAuthorized("invalid authorization header").Send(w)
			return
		}

		if config.IsTest() && token == config.Config().Auth.TestUserToken {
			userID := r.Header.Get(TestUserIDHeader)
			if userID == "" {
				userID = defaultTestUserID
			}
			ctx = gamecommon.WithTestContext(ctx, true)
			ctx = gamecommon.WithUserID(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		userID, err := ValidatePlayerToken(ctx, token)
		if err != nil {
			log.Ctx(ctx).Info().Err(err).Msg("token validation failed")
			httpx.ErrUnAuthorized("invalid or expired token").Send(w)
			return
		}

		ctx = gamecommon.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
