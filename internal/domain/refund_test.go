package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefundEligible_CustomerAdvance(t *testing.T) {
	// Ровно час до начала - возврат положен
	assert.True(t, RefundEligible(CauseCustomerAdvance, 1.0))
	assert.True(t, RefundEligible(CauseCustomerAdvance, 25.5))

	// 59 минут - отказ
	assert.False(t, RefundEligible(CauseCustomerAdvance, 59.0/60.0))
	assert.False(t, RefundEligible(CauseCustomerAdvance, -2.0))
}

func TestRefundEligible_ProviderCausesAlwaysEligible(t *testing.T) {
	// Отмена провайдером и excessive wait - возврат независимо от notice
	assert.True(t, RefundEligible(CauseProviderCancelled, -3.0))
	assert.True(t, RefundEligible(CauseExcessiveWait, 0))
}

func TestRefundEligible_UnknownCause(t *testing.T) {
	assert.False(t, RefundEligible(CancellationCause("no_show"), 100))
}

func TestHoursNotice(t *testing.T) {
	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	assert.InDelta(t, 2.0, HoursNotice(start, start.Add(-2*time.Hour)), 1e-9)
	assert.InDelta(t, 59.0/60.0, HoursNotice(start, start.Add(-59*time.Minute)), 1e-9)

	// Отмена после начала - отрицательный notice
	assert.InDelta(t, -0.5, HoursNotice(start, start.Add(30*time.Minute)), 1e-9)
}

func TestRefund_IsTerminal(t *testing.T) {
	assert.True(t, (&Refund{Status: RefundCompleted}).IsTerminal())
	assert.True(t, (&Refund{Status: RefundFailed}).IsTerminal())
	assert.False(t, (&Refund{Status: RefundProcessing}).IsTerminal())
	assert.False(t, (&Refund{Status: RefundPending}).IsTerminal())
}

func TestIsKnownCause(t *testing.T) {
	assert.True(t, IsKnownCause(CauseProviderCancelled))
	assert.True(t, IsKnownCause(CauseExcessiveWait))
	assert.True(t, IsKnownCause(CauseCustomerAdvance))
	assert.False(t, IsKnownCause(CancellationCause("whatever")))
}
