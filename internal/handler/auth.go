package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"vton-rest-api/internal/model"
	"vton-rest-api/internal/repository"
	"vton-rest-api/internal/service"
	"vton-rest-api/pkg/apierror"
	"vton-rest-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService   *service.TokenService
	accounts       repository.AccountRepository
	welcomeCredits int
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, accounts repository.AccountRepository, welcomeCredits int) *AuthHandler {
	return &AuthHandler{
		tokenService:   tokenService,
		accounts:       accounts,
		welcomeCredits: welcomeCredits,
	}
}

// CredentialsRequest represents the request body for register and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents the response for a successful login.
type TokenResponse struct {
	Token     string         `json:"token"`
	ExpiresIn int            `json:"expires_in"`
	Account   *model.Account `json:"account"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, apiErr := decodeCredentials(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to hash password"))
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), req.Email, string(hash), h.welcomeCredits)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Error(w, apierror.Conflict("an account with this email already exists"))
			return
		}
		response.Error(w, apierror.InternalError("failed to create account"))
		return
	}

	response.Created(w, account)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, apiErr := decodeCredentials(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	account, err := h.accounts.GetAccountByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response as a bad password so emails cannot be probed.
		response.Error(w, apierror.Unauthorized("invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		response.Error(w, apierror.Unauthorized("invalid email or password"))
		return
	}

	token, err := h.tokenService.GenerateToken(r.Context(), model.TokenData{
		AccountID: account.ID,
		Email:     account.Email,
		Tier:      account.Tier,
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to create session"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
		Account:   account,
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke session"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

func decodeCredentials(r *http.Request) (*CredentialsRequest, *apierror.Error) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apierror.BadRequest("invalid request body")
	}
	defer r.Body.Close()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apierror.ValidationError("invalid credentials",
			apierror.FieldError{Field: "email", Message: "a valid email address is required"})
	}
	if len(req.Password) < 8 {
		return nil, apierror.ValidationError("invalid credentials",
			apierror.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}

	return &req, nil
}
