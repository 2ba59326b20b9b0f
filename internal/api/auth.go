package api

import (
	"encoding/json"
	"net/http"

	"github.com/coolwednesday/bookstore-go-app/internal/models"
)

// RegisterHandler handles POST /api/v1/auth/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	user, err := a.userService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler handles POST /api/v1/auth/login
func (a *App) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	token, err := a.userService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}
