package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	pv := NewPasswordValidator()

	tests := []struct {
		password string
		want     error
	}{
		{"Str0ngPass", nil},
		{"Sh0rt", ErrPasswordTooShort},
		{"A1" + strings.Repeat("bx", 40), ErrPasswordTooLong},
		{"lowerc4se", ErrPasswordNoUpper},
		{"UPPERC4SE", ErrPasswordNoLower},
		{"NoDigitsHere", ErrPasswordNoNumber},
		{"Paaassw0rd", ErrPasswordRepeating},
		{"Xabcd9Qz", ErrPasswordSequential},
		{"Xq321zT9", ErrPasswordSequential},
		{"Password1", ErrPasswordCommon},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, pv.ValidatePassword(tt.password))
		})
	}
}
