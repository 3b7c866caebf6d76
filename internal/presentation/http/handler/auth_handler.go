package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Login successful", newAuthResponse(output))
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req request.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Register(c.Request.Context(), &service.RegisterInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Password:        req.Password,
		DefaultCurrency: req.DefaultCurrency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Registration successful", newAuthResponse(output))
}

// GetProfile returns the authenticated user
func (h *AuthHandler) GetProfile(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	user, err := h.authService.Profile(c.Request.Context(), p.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Profile retrieved successfully", response.NewUserResponse(user))
}

func newAuthResponse(output *service.AuthOutput) response.AuthResponse {
	return response.AuthResponse{
		User:        response.NewUserResponse(output.User),
		AccessToken: output.AccessToken,
		TokenType:   "Bearer",
	}
}
