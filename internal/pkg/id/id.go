package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID string. Users and OTP codes are keyed by it in both
// the DynamoDB and SQL stores, so ids sort by creation time everywhere.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
