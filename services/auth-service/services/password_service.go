package services

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters long")
	ErrPasswordNoUpper    = errors.New("password must contain at least one uppercase letter")
	ErrPasswordNoLower    = errors.New("password must contain at least one lowercase letter")
	ErrPasswordNoNumber   = errors.New("password must contain at least one number")
	ErrPasswordNoSpecial  = errors.New("password must contain at least one special character")
	ErrPasswordCommon     = errors.New("password is too common")
	ErrPasswordSequential = errors.New("password contains sequential characters")
	ErrPasswordRepeating  = errors.New("password contains repeating characters")
)

// PasswordValidator validates passwords against security requirements
type PasswordValidator struct {
	minLength       int
	requireUpper    bool
	requireLower    bool
	requireNumber   bool
	requireSpecial  bool
	maxRun          int
	commonPasswords map[string]bool
}

// NewPasswordValidator creates a new password validator with default settings
func NewPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		minLength:     8,
		requireUpper:  true,
		requireLower:  true,
		requireNumber: true,
		maxRun:        3,
		commonPasswords: map[string]bool{
			"password1":   true,
			"password123": true,
			"qwerty123":   true,
			"welcome1":    true,
			"letmein1":    true,
		},
	}
}

// ValidatePassword checks if a password meets all security requirements.
// Runs of maxRun repeated or consecutive characters ("aaa", "abc", "321") are rejected.
func (pv *PasswordValidator) ValidatePassword(password string) error {
	if len(password) < pv.minLength {
		return ErrPasswordTooShort
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var prev rune
	repeatRun, seqRun, seqDir := 1, 1, 0

	for i, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}

		if i > 0 {
			if char == prev {
				repeatRun++
				if repeatRun >= pv.maxRun {
					return ErrPasswordRepeating
				}
			} else {
				repeatRun = 1
			}

			dir := int(char - prev)
			if (dir == 1 || dir == -1) && (seqDir == 0 || dir == seqDir) {
				seqRun++
				seqDir = dir
				if seqRun >= pv.maxRun {
					return ErrPasswordSequential
				}
			} else if dir == 1 || dir == -1 {
				seqRun, seqDir = 2, dir
			} else {
				seqRun, seqDir = 1, 0
			}
		}
		prev = char
	}

	if pv.requireUpper && !hasUpper {
		return ErrPasswordNoUpper
	}
	if pv.requireLower && !hasLower {
		return ErrPasswordNoLower
	}
	if pv.requireNumber && !hasNumber {
		return ErrPasswordNoNumber
	}
	if pv.requireSpecial && !hasSpecial {
		return ErrPasswordNoSpecial
	}

	if pv.commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}

	return nil
}
