package oauth

import (
	"encoding/json"
	"net/http"
)

// TokenResponse represents the OAuth2 token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ErrorResponse represents an OAuth2 error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Client is a registered OAuth2 client.
type Client struct {
	ID     string
	Secret string
}

// Handler handles OAuth2 endpoints.
type Handler struct {
	tokenManager *TokenManager
	clients      map[string]string
}

// NewHandler creates a new OAuth2 handler. With no registered clients any
// client_credentials request is accepted.
func NewHandler(tm *TokenManager, clients ...Client) *Handler {
	h := &Handler{tokenManager: tm, clients: make(map[string]string, len(clients))}
	for _, c := range clients {
		h.clients[c.ID] = c.Secret
	}
	return h
}

// HandleToken handles the token endpoint.
//
//	@Summary	Issue an access token
//	@Tags		oauth
//	@Accept		x-www-form-urlencoded
//	@Produce	json
//	@Param		grant_type		formData	string	true	"client_credentials or refresh_token"
//	@Param		client_id		formData	string	false	"Client ID"
//	@Param		client_secret	formData	string	false	"Client secret"
//	@Param		refresh_token	formData	string	false	"Refresh token"
//	@Success	200				{object}	TokenResponse
//	@Failure	400				{object}	ErrorResponse
//	@Failure	401				{object}	ErrorResponse
//	@Router		/oauth/token [post]
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "invalid_request", "Method not allowed")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}

	switch r.FormValue("grant_type") {
	case "":
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing grant_type")
		return
	case "client_credentials":
		id, secret := r.FormValue("client_id"), r.FormValue("client_secret")
		if basicID, basicSecret, ok := r.BasicAuth(); ok {
			id, secret = basicID, basicSecret
		}
		if !h.authorize(id, secret) {
			h.writeError(w, http.StatusUnauthorized, "invalid_client", "Unknown client or wrong secret")
			return
		}
	case "refresh_token":
		if !h.tokenManager.ValidateRefreshToken(r.FormValue("refresh_token")) {
			h.writeError(w, http.StatusBadRequest, "invalid_grant", "Invalid or expired refresh token")
			return
		}
	default:
		h.writeError(w, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant_type")
		return
	}

	accessToken, err := h.tokenManager.GenerateToken()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "server_error", "Failed to generate access token")
		return
	}

	refreshToken, err := h.tokenManager.GenerateRefreshToken()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "server_error", "Failed to generate refresh token")
		return
	}

	response := TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    tokenTTL,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handler) authorize(id, secret string) bool {
	if len(h.clients) == 0 {
		return true
	}
	want, ok := h.clients[id]
	return ok && want == secret
}

// writeError writes an OAuth2 error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, error, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            error,
		ErrorDescription: description,
	})
}
