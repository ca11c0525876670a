package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDiscount(t *testing.T) {
	tests := []struct {
		name     string
		voucher  Voucher
		subtotal int64
		want     int64
	}{
		{"percentage", Voucher{Type: VoucherTypePercentage, Value: 10}, 12345, 1235},
		{"percentage capped", Voucher{Type: VoucherTypePercentage, Value: 50, MaxDiscount: 2000}, 10000, 2000},
		{"full percentage", Voucher{Type: VoucherTypePercentage, Value: 100}, 4999, 4999},
		{"fractional percentage", Voucher{Type: VoucherTypePercentage, Value: 12.5}, 1000, 125},
		{"fixed", Voucher{Type: VoucherTypeFixed, Value: 500}, 3000, 500},
		{"fixed capped at subtotal", Voucher{Type: VoucherTypeFixed, Value: 5000}, 3000, 3000},
		{"zero subtotal", Voucher{Type: VoucherTypeFixed, Value: 500}, 0, 0},
		{"unknown type", Voucher{Type: "bogo", Value: 500}, 3000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.voucher.CalculateDiscount(tt.subtotal))
		})
	}
}

func TestUsageExhausted(t *testing.T) {
	assert.False(t, (&Voucher{UsageLimit: 0, UsedCount: 50}).UsageExhausted())
	assert.False(t, (&Voucher{UsageLimit: 3, UsedCount: 2}).UsageExhausted())
	assert.True(t, (&Voucher{UsageLimit: 3, UsedCount: 3}).UsageExhausted())
}
