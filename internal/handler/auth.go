package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roomlock/roomlock-server/internal/model"
	"github.com/roomlock/roomlock-server/internal/service"
)

// AuthService is the account API used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Me(ctx context.Context, userID uint64) (model.User, error)
}

type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type registerReq struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Phone      *string `json:"phone"`
	University *string `json:"university"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.  All failures are 400.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Cuerpo de la solicitud inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Register(ctx, service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Phone:      req.Phone,
		University: req.University,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, "Usuario registrado exitosamente", u)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Cuerpo de la solicitud inválido")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Inicio de sesión exitoso", res)
}

func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthenticated(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Auth.Me(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Usuario obtenido exitosamente", u)
}
