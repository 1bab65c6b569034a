package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const holderIDKey contextKey = "holderID"

type claims struct {
	HolderID int `json:"holder_id"`
	jwt.RegisteredClaims
}

func (a *API) generateToken(holderID int) (string, error) {
	c := &claims{
		HolderID: holderID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.jwtSecret)
}

// AuthMiddleware requires a valid bearer token and puts the holder id
// on the request context.
func (a *API) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			httpError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		c := &claims{}
		token, err := jwt.ParseWithClaims(tokenStr, c, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			httpError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), holderIDKey, c.HolderID)
		next(w, r.WithContext(ctx))
	}
}
