package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nestmap/nestmap/internal/api/models"
	"github.com/nestmap/nestmap/internal/auth"
)

type userIDKey struct{}

// TokenValidator resolves a bearer token to the caller's user id.
// *auth.JWTService implements it.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

// Auth rejects requests without a valid bearer token with a 401 problem and
// a WWW-Authenticate challenge. The token subject becomes the request's
// user id.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r.Header.Get("Authorization"))
			if problem != "" {
				unauthorized(w, r, "", problem)
				return
			}

			userID, err := tokens.ValidateAccessToken(token)
			if err != nil {
				detail := tokenProblem(err)
				unauthorized(w, r, "invalid_token", detail)
				return
			}

			if st := stateFrom(r.Context()); st != nil {
				st.userID = userID
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID)))
		})
	}
}

// bearerToken extracts the token of an "Authorization: Bearer" header. The
// scheme is case-insensitive.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization header format"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func tokenProblem(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken), errors.Is(err, auth.ErrMissingSubject):
		return "invalid access token"
	}
	return "authentication failed"
}

func unauthorized(w http.ResponseWriter, r *http.Request, code, detail string) {
	challenge := `Bearer realm="nestmap"`
	if code != "" {
		challenge += `, error="` + code + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	models.NewUnauthorized(GetRequestID(r.Context()), detail).WithInstance(r.URL.Path).Write(w)
}

// GetUserID returns the authenticated user id, or "" outside Auth.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
