package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/response"
)

// writeError renders err with the status from apperr.HTTPStatus. Client
// errors carry their own message; server errors use fallback as the message
// and expose the cause as the error detail.
func writeError(c *gin.Context, log *zap.SugaredLogger, fallback string, err error) {
	status := apperr.HTTPStatus(err)
	var ae *apperr.Error
	if errors.As(err, &ae) && status < 500 {
		c.JSON(status, response.Fail(ae.Msg, nil))
		return
	}
	logctx.FromGin(c, log).Errorw(fallback, "status", status, "err", err)
	_ = c.Error(err)
	c.JSON(status, response.Fail(fallback, err))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Fail(err.Error(), nil))
}
