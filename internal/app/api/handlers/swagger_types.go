package handlers

import (
	"github.com/fatflowers/genstudio/internal/app/repository"
	"github.com/fatflowers/genstudio/internal/app/service/account"
	"github.com/fatflowers/genstudio/internal/app/service/content"
	"github.com/fatflowers/genstudio/internal/app/service/statistics"
	"github.com/fatflowers/genstudio/internal/app/service/subscription"
	"github.com/fatflowers/genstudio/internal/models"
	"github.com/fatflowers/genstudio/pkg/response"
	"github.com/fatflowers/genstudio/pkg/types"
)

// Response bodies. Each embeds the envelope so fields sit next to success.

type RegisterResponse struct {
	response.Envelope
	UserID string `json:"userId"`
}

type LoginResponse struct {
	response.Envelope
	User *account.LoginUser `json:"user"`
}

type UserResponse struct {
	response.Envelope
	User *models.User `json:"user"`
}

type ContentListResponse struct {
	response.Envelope
	Content []*models.ContentItem `json:"content"`
}

type SaveContentResponse struct {
	response.Envelope
	ContentID string `json:"contentId"`
}

type GenerateContentResponse struct {
	response.Envelope
	content.GenerateResult
}

type SubscriptionStatusResponse struct {
	response.Envelope
	Subscription     *models.Subscription `json:"subscription"`
	IsPremium        bool                 `json:"isPremium"`
	SubscriptionType types.Tier           `json:"subscriptionType"`
}

type CheckoutResponse struct {
	response.Envelope
	subscription.Checkout
}

type ActivateResponse struct {
	response.Envelope
	subscription.ActivateResponse
}

// RespListPayments wraps repository.ScanPaymentsResponse in the data envelope.
type RespListPayments struct {
	response.Envelope
	Data repository.ScanPaymentsResponse `json:"data"`
}

// RespStatistics wraps statistics.Response in the data envelope.
type RespStatistics struct {
	response.Envelope
	Data statistics.Response `json:"data"`
}

type RespHealth struct {
	response.Envelope
	Data map[string]string `json:"data"`
}
