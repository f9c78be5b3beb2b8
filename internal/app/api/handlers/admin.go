package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/statistics"
	"github.com/fatflowers/genstudio/pkg/response"
)

type PaymentScanner interface {
	Scan(ctx context.Context, req *repository.ScanPaymentsRequest) (*repository.ScanPaymentsResponse, error)
}

// @Summary      List payments (Admin)
// @Description  Retrieves a paginated and filterable list of logged payments.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body repository.ScanPaymentsRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListPayments
// @Failure      400  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/v1/admin/payment/list [post]
func ApiListPayments(payments PaymentScanner, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req repository.ScanPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := payments.Scan(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Failed to list payments", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type StatisticsService interface {
	Get(ctx context.Context, req *statistics.Request) (*statistics.Response, error)
}

// @Summary      Get statistics (Admin)
// @Description  Computes daily series for payments, subscriptions and generated content.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.Request true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistics
// @Failure      400  {object}  response.Failure
// @Failure      500  {object}  response.Failure
// @Router       /api/v1/admin/statistic [post]
func ApiGetStatistics(stats StatisticsService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := stats.Get(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Failed to get statistics", err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, payments PaymentScanner, stats StatisticsService, log *zap.SugaredLogger) {
	r.POST("/payment/list", ApiListPayments(payments, log))
	r.POST("/statistic", ApiGetStatistics(stats, log))
}
