package core

import (
	"context"
	"time"
)

// NowFunc returns the current time. Every stored timestamp goes through it.
var NowFunc = func() time.Time { return time.Now().UTC().Truncate(time.Second) } // mockable

// Actor identifies the authenticated caller on whose behalf a service operation runs.
// Every operation is scoped to Actor.ChurchID.
type Actor struct {
	UserID   string
	ChurchID string
	PersonID string // linked person, may be empty
	Profile  string
	Name     string
	IP       string
}

// ActionLogger records user actions in the access log.
// Implementations must not block the caller nor report failures back to it.
type ActionLogger interface {
	LogAction(ctx context.Context, actor Actor, action, details string)
}
