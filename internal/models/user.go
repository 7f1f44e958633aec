package models

import (
	"time"
)

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// User is the identity record owned by the credential store. The OTP and
// reset fields hold digests only; raw codes and tokens are never persisted.
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	MobileNo            string     `json:"mobile_no"`
	PasswordHash        string     `json:"-"`
	FullName            string     `json:"full_name"`
	Gender              string     `json:"gender"`
	IsMobileVerified    bool       `json:"is_mobile_verified"`
	OTPHash             *string    `json:"-"`
	OTPExpiresAt        *time.Time `json:"-"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HasPendingCode reports whether an unexpired verification code is attached.
func (u *User) HasPendingCode(now time.Time) bool {
	return u.OTPHash != nil && u.OTPExpiresAt != nil && now.Before(*u.OTPExpiresAt)
}

// HasResetChallenge reports whether an unexpired reset challenge is attached.
func (u *User) HasResetChallenge(now time.Time) bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiresAt != nil && now.Before(*u.ResetTokenExpiresAt)
}
