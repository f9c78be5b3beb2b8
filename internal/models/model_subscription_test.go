package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fatflowers/genstudio/pkg/types"
)

func TestSubscription_ValidAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{name: "nil", sub: nil, want: false},
		{name: "active future end", sub: &Subscription{Status: types.SubscriptionStatusActive, EndDate: now.Add(time.Hour)}, want: true},
		{name: "active end equals now", sub: &Subscription{Status: types.SubscriptionStatusActive, EndDate: now}, want: false},
		{name: "active but expired", sub: &Subscription{Status: types.SubscriptionStatusActive, EndDate: now.Add(-time.Second)}, want: false},
		{name: "cancelled future end", sub: &Subscription{Status: types.SubscriptionStatusCancelled, EndDate: now.Add(24 * time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.ValidAt(now))
		})
	}
}
