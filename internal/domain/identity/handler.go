package identity

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public authentication endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.Login)
	g.POST("/register", h.Register)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
	Role    string `json:"role"`
	Name    string `json:"name"`
	Token   string `json:"token"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "login successful",
		UserID:  result.UserID,
		Role:    result.Role,
		Name:    result.Name,
		Token:   result.Token,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
	Token   string `json:"token"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.Register(c.Request().Context(), req.Username, req.Password, req.Name)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, registerResponse{
		Message: "registration successful",
		UserID:  result.UserID,
		Token:   result.Token,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	case errors.Is(err, ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusConflict, ErrUsernameTaken.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
}
