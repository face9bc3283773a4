package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"predictperp/internal/errs"
)

// writeJSON writes v as a JSON body with status, logging (never panicking
// on) a write-side encode failure — the response is already committed by
// the time Encode can fail.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("httpapi: encode response failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeCoreError maps an internal/errs.Kind to the status codes spec.md §6
// and §7 specify: Validation/State to 400, everything else to 500. That
// includes Invariant errors, which are logged; no circuit breaker is
// tripped. External errors also land in the 500 branch: an oracle read
// failure surfaces synchronously through GET /oracle_price, /perp_price
// and /positions/{address}.
func writeCoreError(w http.ResponseWriter, err error) {
	switch errs.KindOf(err) {
	case errs.Validation, errs.State:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("httpapi: invariant error at request boundary")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes the request body into dst, reporting 422 per spec.md
// §6 ("422 on missing field") since a malformed or absent body means the
// caller never supplied the fields the route requires.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "missing or malformed request body")
		return false
	}
	return true
}

// jwtAuth requires a valid "Authorization: Bearer <token>" HS256 JWT signed
// with secret on every request it wraps, per SPEC_FULL.md §4.5 — spec.md §1
// calls traders "authenticated" without naming a scheme, and JWT bearer
// auth is this expansion's resolution of that open question.
func jwtAuth(secret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				writeError(w, http.StatusBadRequest, "missing bearer token")
				return
			}
			raw := strings.TrimPrefix(header, prefix)

			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errs.Validationf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			}, jwt.WithIssuer(issuer))
			if err != nil || !token.Valid {
				writeError(w, http.StatusBadRequest, "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
