package domain

import "time"

// Delivery channels for one-time codes.
const (
	OTPChannelEmail = "email"
	OTPChannelPhone = "phone"
)

type OTPCode struct {
	OTPID     string     `json:"id" dynamodbav:"otp_id" db:"id"`
	UserID    string     `json:"user_id" dynamodbav:"user_id" db:"user_id"`
	Code      string     `json:"-" dynamodbav:"code" db:"code"`
	Type      string     `json:"type" dynamodbav:"type" db:"type"`
	ExpiresAt time.Time  `json:"expires_at" dynamodbav:"expires_at" db:"expires_at"`
	Used      bool       `json:"used" dynamodbav:"used" db:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" dynamodbav:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at" db:"created_at"`
}

// Expired reports whether the code can no longer be redeemed at now.
// A code is still valid at exactly its expiry instant.
func (c *OTPCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
