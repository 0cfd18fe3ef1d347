package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderIsTerminal(t *testing.T) {
	terminal := []string{OrderStatusPaid, OrderStatusFailed, OrderStatusRefunded}
	for _, status := range terminal {
		assert.True(t, (&Order{Status: status}).IsTerminal(), "status %s should be terminal", status)
	}

	open := []string{OrderStatusPending, OrderStatusAwaitingPayment, OrderStatusProcessing}
	for _, status := range open {
		assert.False(t, (&Order{Status: status}).IsTerminal(), "status %s should not be terminal", status)
	}
}

func TestPlanFeatureList(t *testing.T) {
	p := &Plan{Features: `["Unlimited courses","Priority support"]`}
	assert.Equal(t, []string{"Unlimited courses", "Priority support"}, p.FeatureList())

	assert.Empty(t, (&Plan{Features: ""}).FeatureList())
	assert.Empty(t, (&Plan{Features: "not json"}).FeatureList())
}
