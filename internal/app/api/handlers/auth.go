package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/service/account"
	"github.com/fatflowers/genstudio/pkg/response"
)

type AccountService interface {
	Register(ctx context.Context, req *account.RegisterRequest) (string, error)
	Login(ctx context.Context, email, password string) (*account.LoginUser, error)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary      Register
// @Description  Creates an account. The password is stored as a bcrypt hash.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body account.RegisterRequest true "Account details"
// @Success      201  {object}  handlers.RegisterResponse
// @Failure      400  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/auth/register [post]
func ApiRegister(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		id, err := svc.Register(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Registration failed", err)
			return
		}
		c.JSON(http.StatusCreated, RegisterResponse{
			Envelope: response.OK("User registered successfully"),
			UserID:   id,
		})
	}
}

// @Summary      Login
// @Description  Checks credentials and returns the user with the current entitlement.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body handlers.LoginRequest true "Credentials"
// @Success      200  {object}  handlers.LoginResponse
// @Failure      401  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/auth/login [post]
func ApiLogin(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		u, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeError(c, log, "Login failed", err)
			return
		}
		c.JSON(http.StatusOK, LoginResponse{Envelope: response.OK("Login successful"), User: u})
	}
}

func RegisterAuthRoutes(r gin.IRouter, svc AccountService, log *zap.SugaredLogger) {
	r.POST("/register", ApiRegister(svc, log))
	r.POST("/login", ApiLogin(svc, log))
}
