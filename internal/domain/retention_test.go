package domain

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestRetentionPolicy_ExpirationOf(t *testing.T) {
	mock := clock.NewMock()
	p := NewRetentionPolicy(mock)

	deletedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC), p.ExpirationOf(deletedAt))
}

func TestRetentionPolicy_Expiration(t *testing.T) {
	deletedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		expired bool
		days    int
	}{
		{"just deleted", deletedAt, false, 30},
		{"29 days later", deletedAt.Add(29 * 24 * time.Hour), false, 1},
		{"exactly 30 days", deletedAt.Add(30 * 24 * time.Hour), true, 0},
		{"30 days and a second", deletedAt.Add(30*24*time.Hour + time.Second), true, 0},
		{"long after, sweep delayed", deletedAt.Add(45 * 24 * time.Hour), true, -15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			mock.Set(tt.now)
			p := NewRetentionPolicy(mock)

			assert.Equal(t, tt.expired, p.IsExpired(deletedAt))
			assert.Equal(t, tt.days, p.DaysRemaining(deletedAt))
		})
	}
}

func TestRetentionPolicy_Urgency(t *testing.T) {
	deletedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Urgency
	}{
		{"fresh", deletedAt, UrgencyNormal},
		{"8 days remaining", deletedAt.Add(22 * 24 * time.Hour), UrgencyNormal},
		{"7 days remaining", deletedAt.Add(23 * 24 * time.Hour), UrgencyWarning},
		{"4 days remaining", deletedAt.Add(26 * 24 * time.Hour), UrgencyWarning},
		{"3 days remaining", deletedAt.Add(27 * 24 * time.Hour), UrgencyUrgent},
		{"already expired", deletedAt.Add(31 * 24 * time.Hour), UrgencyUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			mock.Set(tt.now)
			p := NewRetentionPolicy(mock)

			assert.Equal(t, tt.want, p.UrgencyOf(deletedAt))
		})
	}
}
