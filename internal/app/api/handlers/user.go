package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/service/account"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/response"
)

type ProfileService interface {
	GetProfile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req *account.UpdateProfileRequest) error
}

// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Param        id   path  string  true  "User id"
// @Success      200  {object}  handlers.UserResponse
// @Failure      404  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/users/{id} [get]
func ApiGetUser(svc ProfileService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.GetProfile(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, log, "Failed to get user", err)
			return
		}
		c.JSON(http.StatusOK, UserResponse{Envelope: response.OK(""), User: u})
	}
}

// @Summary      Update user
// @Description  Updates username and email. Unknown ids are not reported.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "User id"
// @Param        request  body  account.UpdateProfileRequest  true  "Profile"
// @Success      200  {object}  response.Envelope
// @Failure      500  {object}  response.Failure
// @Router       /api/users/{id} [put]
func ApiUpdateUser(svc ProfileService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if err := svc.UpdateProfile(c.Request.Context(), c.Param("id"), &req); err != nil {
			writeError(c, log, "Failed to update profile", err)
			return
		}
		c.JSON(http.StatusOK, response.OK("Profile updated successfully"))
	}
}

func RegisterUserRoutes(r gin.IRouter, svc ProfileService, log *zap.SugaredLogger) {
	r.GET("/:id", ApiGetUser(svc, log))
	r.PUT("/:id", ApiUpdateUser(svc, log))
}
