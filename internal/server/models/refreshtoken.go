package models

import "time"

// RefreshToken is a long-lived login session bound to a device. The token
// value is opaque (random hex); consuming it rotates the row.
type RefreshToken struct {
	ID         string
	UserID     string
	Token      string
	DeviceInfo string
	IPAddress  string
	Expires    time.Time
	CreatedAt  time.Time
}
