package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dresesc/winter-references-bot/internal/domain"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name                        string
		pending, approved, rejected int64
		want                        domain.ReferenceStatus
	}{
		{"any pending keeps it pending", 1, 2, 0, domain.StatusPending},
		{"all approved", 0, 3, 0, domain.StatusApproved},
		{"all rejected", 0, 0, 2, domain.StatusRejected},
		{"approved and rejected is mixed", 0, 2, 1, domain.StatusMixed},
		{"no photos at all is mixed-by-definition", 0, 0, 0, domain.StatusMixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveStatus(tt.pending, tt.approved, tt.rejected))
		})
	}
}

func TestReviewerPolicy(t *testing.T) {
	policy := domain.ReviewerPolicy{ReviewerID: 42}

	assert.True(t, policy.Allows(42))
	assert.False(t, policy.Allows(7))

	t.Run("unconfigured reviewer allows nobody", func(t *testing.T) {
		empty := domain.ReviewerPolicy{}
		assert.False(t, empty.Allows(0))
		assert.False(t, empty.Allows(42))
	})
}
