package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/service/content"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/response"
)

type ContentService interface {
	Generate(ctx context.Context, req *content.GenerateRequest) (*content.GenerateResult, error)
	Save(ctx context.Context, req *content.SaveRequest) (string, error)
	ListByOwner(ctx context.Context, userID string) ([]*models.ContentItem, error)
	DeleteByID(ctx context.Context, id string) error
}

// @Summary      List content
// @Description  Returns the user's content, newest first.
// @Tags         Content
// @Produce      json
// @Param        userId  path  string  true  "User id"
// @Success      200  {object}  handlers.ContentListResponse
// @Failure      500  {object}  response.Failure
// @Router       /api/content/user/{userId} [get]
func ApiListContent(svc ContentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svc.ListByOwner(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, log, "Failed to get content", err)
			return
		}
		c.JSON(http.StatusOK, ContentListResponse{Envelope: response.OK(""), Content: items})
	}
}

// @Summary      Save content
// @Description  Records content with a caller supplied url. No provider is called.
// @Tags         Content
// @Accept       json
// @Produce      json
// @Param        request body content.SaveRequest true "Content"
// @Success      201  {object}  handlers.SaveContentResponse
// @Failure      500  {object}  response.Failure
// @Router       /api/content/save [post]
func ApiSaveContent(svc ContentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req content.SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		id, err := svc.Save(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Failed to save content", err)
			return
		}
		c.JSON(http.StatusCreated, SaveContentResponse{Envelope: response.OK("Content saved successfully"), ContentID: id})
	}
}

// @Summary      Generate content
// @Description  Generates an image through the configured provider or a video placeholder.
// @Tags         Content
// @Accept       json
// @Produce      json
// @Param        request body content.GenerateRequest true "Generation request"
// @Success      201  {object}  handlers.GenerateContentResponse
// @Failure      400  {object}  response.Failure
// @Failure      429  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/content/generate [post]
func ApiGenerateContent(svc ContentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req content.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Generate(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Failed to generate content", err)
			return
		}
		c.JSON(http.StatusCreated, GenerateContentResponse{
			Envelope:       response.OK("Content generated successfully"),
			GenerateResult: *res,
		})
	}
}

// @Summary      Delete content
// @Description  Deleting an unknown id succeeds.
// @Tags         Content
// @Produce      json
// @Param        id   path  string  true  "Content id"
// @Success      200  {object}  response.Envelope
// @Failure      500  {object}  response.Failure
// @Router       /api/content/{id} [delete]
func ApiDeleteContent(svc ContentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, log, "Failed to delete content", err)
			return
		}
		c.JSON(http.StatusOK, response.OK("Content deleted successfully"))
	}
}

// RegisterContentRoutes mounts the content API. generateGuard runs before
// the generate handler only.
func RegisterContentRoutes(r gin.IRouter, svc ContentService, log *zap.SugaredLogger, generateGuard ...gin.HandlerFunc) {
	r.GET("/user/:userId", ApiListContent(svc, log))
	r.POST("/save", ApiSaveContent(svc, log))
	chain := make([]gin.HandlerFunc, 0, len(generateGuard)+1)
	chain = append(chain, generateGuard...)
	r.POST("/generate", append(chain, ApiGenerateContent(svc, log))...)
	r.DELETE("/:id", ApiDeleteContent(svc, log))
}
