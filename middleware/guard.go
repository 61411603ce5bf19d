package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	authcore "github.com/pkalnins/authcore"
)

// DetailInvalidToken is the uniform body detail for every token failure.
const DetailInvalidToken = "Could not validate credentials"

type identityContextKey struct{}

// IdentityFromContext returns the identity Guard stored for the request.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return identity, ok
}

// Guard wraps a handler with access-token enforcement.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				Unauthorized(w, DetailInvalidToken)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				Unauthorized(w, DetailInvalidToken)
				return
			}

			identity, err := engine.Validate(r.Context(), token)
			if err != nil {
				Unauthorized(w, DetailInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Unauthorized writes the uniform 401 response: WWW-Authenticate: Bearer
// and a JSON body carrying only the given detail string.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
