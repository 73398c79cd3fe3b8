package model

import (
	"time"

	"github.com/google/uuid"
)

const BucketSession = "session"

// MaxAttempts is the number of wrong codes a session tolerates before it
// fails for good.
const MaxAttempts = 5

// TestingCode marks the synthetic always-present session used for manual
// end-to-end testing. It can never be produced by the code generator and
// must never trigger a real role grant.
const TestingCode = "-420"

type SessionState int

// A session walks forward through these states and never backward.
const (
	StateAwaitingStart SessionState = iota
	StateAwaitingCode
	StateVerified
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingStart:
		return "AwaitingStart"
	case StateAwaitingCode:
		return "AwaitingCode"
	case StateVerified:
		return "Verified"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Session is a single verification session. Sessions are keyed by the
// platform user id; the secondary id is an unguessable capability that must
// match on every lookup.
type Session struct {
	SecondaryID       uuid.UUID
	UserID            int64
	GuildID           int64
	Name              string
	Code              string
	CreatedAt         time.Time
	State             SessionState
	RemainingAttempts int
}
