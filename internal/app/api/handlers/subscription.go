package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/internal/app/service/entitlement"
	"github.com/fatflowers/genstudio/internal/app/service/subscription"
	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/response"
)

type SubscriptionService interface {
	CreateCheckout(ctx context.Context, userID string) (*subscription.Checkout, error)
	Activate(ctx context.Context, req *subscription.ActivateRequest) (*subscription.ActivateResponse, error)
	Cancel(ctx context.Context, userID string) error
}

type StatusReader interface {
	Status(ctx context.Context, userID string) (*entitlement.Status, error)
}

type UserIDRequest struct {
	UserID string `json:"userId"`
}

// @Summary      Subscription status
// @Description  Returns the latest active subscription, or null, and the derived tier.
// @Tags         Subscription
// @Produce      json
// @Param        userId  path  string  true  "User id"
// @Success      200  {object}  handlers.SubscriptionStatusResponse
// @Failure      500  {object}  response.Failure
// @Router       /api/subscription/user/{userId} [get]
func ApiSubscriptionStatus(status StatusReader, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := status.Status(c.Request.Context(), c.Param("userId"))
		if err != nil {
			writeError(c, log, "Failed to get subscription", err)
			return
		}
		c.JSON(http.StatusOK, SubscriptionStatusResponse{
			Envelope:         response.OK(""),
			Subscription:     st.Subscription,
			IsPremium:        st.IsPremium,
			SubscriptionType: st.Tier,
		})
	}
}

// @Summary      Create checkout
// @Description  Issues a test-mode checkout session. Nothing is charged.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body handlers.UserIDRequest true "User"
// @Success      200  {object}  handlers.CheckoutResponse
// @Failure      500  {object}  response.Failure
// @Router       /api/subscription/create-checkout [post]
func ApiCreateCheckout(svc SubscriptionService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		co, err := svc.CreateCheckout(c.Request.Context(), req.UserID)
		if err != nil {
			writeError(c, log, "Failed to create checkout", err)
			return
		}
		c.JSON(http.StatusOK, CheckoutResponse{Envelope: response.OK(""), Checkout: *co})
	}
}

// @Summary      Activate subscription
// @Description  Starts or extends the premium window by 30 days and logs a payment.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body subscription.ActivateRequest true "Activation"
// @Success      200  {object}  handlers.ActivateResponse
// @Failure      500  {object}  response.Failure
// @Router       /api/subscription/activate [post]
func ApiActivateSubscription(svc SubscriptionService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.ActivateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		res, err := svc.Activate(c.Request.Context(), &req)
		if err != nil {
			writeError(c, log, "Failed to activate subscription", err)
			return
		}
		c.JSON(http.StatusOK, ActivateResponse{
			Envelope:         response.OK("Subscription activated successfully"),
			ActivateResponse: *res,
		})
	}
}

// @Summary      Cancel subscription
// @Description  Cancels the active subscription. Succeeds when there is none.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body handlers.UserIDRequest true "User"
// @Success      200  {object}  response.Envelope
// @Failure      500  {object}  response.Failure
// @Router       /api/subscription/cancel [post]
func ApiCancelSubscription(svc SubscriptionService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserIDRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if req.UserID == "" {
			writeError(c, log, "Failed to cancel subscription", apperr.Validation("userId is required"))
			return
		}
		if err := svc.Cancel(c.Request.Context(), req.UserID); err != nil {
			writeError(c, log, "Failed to cancel subscription", err)
			return
		}
		c.JSON(http.StatusOK, response.OK("Subscription cancelled successfully"))
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc SubscriptionService, status StatusReader, log *zap.SugaredLogger) {
	r.GET("/user/:userId", ApiSubscriptionStatus(status, log))
	r.POST("/create-checkout", ApiCreateCheckout(svc, log))
	r.POST("/activate", ApiActivateSubscription(svc, log))
	r.POST("/cancel", ApiCancelSubscription(svc, log))
}
