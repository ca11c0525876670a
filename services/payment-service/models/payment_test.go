package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentAccepts(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusSucceeded, true},
		{StatusPending, StatusFailed, true},
		{StatusFailed, StatusSucceeded, true},
		{StatusFailed, StatusFailed, false},
		{StatusSucceeded, StatusFailed, false},
		{StatusSucceeded, StatusSucceeded, false},
	}
	for _, tt := range tests {
		p := &Payment{Status: tt.from}
		assert.Equal(t, tt.want, p.Accepts(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.False(t, (&Payment{Status: StatusFailed}).IsTerminal())
}
