package dynamo

import "time"

// DynamoDB attribute and index names shared by the repos and Bootstrap.
const (
	fieldUserID     = "user_id"
	fieldEmail      = "email"
	fieldOTPID      = "otp_id"
	fieldCode       = "code"
	fieldUsed       = "used"
	fieldUsedAt     = "used_at"
	fieldExpiresTTL = "expires_ttl"

	indexEmail = "email-index"
)

// consumedRetention is how long a used code is kept before DynamoDB TTL removes it.
const consumedRetention = 24 * time.Hour
