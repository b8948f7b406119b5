package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"confirmed":               StatusConfirmed,
		"confirmed_config":        StatusConfirmed,
		"confirmed_configuration": StatusConfirmed,
		"ACTIVE":                  StatusConfirmed,
		" pending ":               StatusPendingPayment,
		"pending_payment":         StatusPendingPayment,
		"confirmed_payment":       StatusConfirmedPayment,
		"pending_config":          StatusPendingConfig,
		"rejected":                StatusRejected,
		"cancelled":               StatusCancelled,
		"canceled":                StatusCancelled,
		"refunding":               StatusUnknown,
		"":                        StatusUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseStatus(raw), raw)
	}
}

func TestStatusGroups(t *testing.T) {
	p := testPolicy()

	assert.True(t, p.IsConfirmed(StatusConfirmed))
	for _, s := range []Status{StatusPendingPayment, StatusConfirmedPayment, StatusPendingConfig, StatusRejected, StatusCancelled, StatusUnknown} {
		assert.False(t, p.IsConfirmed(s), s)
	}

	assert.True(t, StatusPendingConfig.IsPending())
	assert.False(t, StatusConfirmed.IsPending())
	assert.True(t, StatusRejected.IsExcluded())
	assert.True(t, StatusCancelled.IsExcluded())
	assert.False(t, StatusPendingPayment.IsExcluded())
}

func TestParseDuration(t *testing.T) {
	cases := map[string]Duration{
		"7天":          DurationTrial,
		"7days":       DurationTrial,
		"7 Days":      DurationTrial,
		"FREE_TRIAL":  DurationTrial,
		"1个月":         DurationOneMonth,
		"1month":      DurationOneMonth,
		"1 Month":     DurationOneMonth,
		"3个月":         DurationThreeMonth,
		"3months":     DurationThreeMonth,
		"6个月":         DurationSixMonth,
		"6months":     DurationSixMonth,
		"1年":          DurationYearly,
		"yearly":      DurationYearly,
		"12个月":        DurationYearly,
		"lifetime":    DurationUnknown,
		"":            DurationUnknown,
		"three_month": DurationThreeMonth,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseDuration(raw), raw)
	}
}

func TestRawStatuses(t *testing.T) {
	assert.Equal(t, []string{"active", "confirmed", "confirmed_config", "confirmed_configuration"}, RawStatuses(StatusConfirmed))
	assert.Equal(t, []string{"canceled", "cancelled"}, RawStatuses(StatusCancelled))
	assert.Empty(t, RawStatuses(StatusUnknown))
}
