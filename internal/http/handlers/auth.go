package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"server/internal/middleware"
	"server/internal/sqlinline"
)

// TokenVerifier checks an external identity token and returns its claims.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (map[string]any, error)
}

type googleAuthRequest struct {
	IDToken string `json:"id_token"`
}

type googleAuthResponse struct {
	Token          string `json:"token"`
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	RemainingQuota int    `json:"remaining_quota"`
}

// GoogleAuth exchanges a Google ID token for a service JWT, provisioning the
// user on first sign-in.
func (a *App) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	if a.Verifier == nil {
		a.error(w, http.StatusNotImplemented, "not_configured", "google sign-in is not configured")
		return
	}

	var req googleAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id_token is required")
		return
	}

	claims, err := a.Verifier.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("auth: google token rejected")
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid google token")
		return
	}
	email, _ := claims["email"].(string)
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "google token has no email")
		return
	}
	name, _ := claims["name"].(string)

	var userID string
	var remaining int
	row := a.SQL.QueryRow(r.Context(), sqlinline.QUpsertUserByEmail, email, name)
	if err := row.Scan(&userID, &remaining); err != nil {
		a.Logger.Error().Err(err).Str("email", email).Msg("auth: user upsert failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to provision user")
		return
	}

	locale := middleware.LocaleFromContext(r.Context())
	token, err := middleware.SignJWT(a.Config.JWTSecret, middleware.TokenClaims{
		Sub:      userID,
		Locale:   locale,
		Exp:      time.Now().Add(24 * time.Hour).Unix(),
		Issuer:   "sketch-api",
		Audience: "sketch-web",
	})
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to issue token")
		return
	}

	a.Logger.Info().Str("user_id", userID).Msg("auth: google sign-in")
	a.json(w, http.StatusOK, googleAuthResponse{
		Token:          token,
		UserID:         userID,
		Email:          email,
		RemainingQuota: remaining,
	})
}
