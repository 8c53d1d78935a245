package domain

import "time"

// User is one exchange account holder loaded from the user store.
// Only users with Active set are registered at startup; anyone activated
// later is invisible until the process restarts.
type User struct {
	ID        string
	Name      string
	APIKey    string
	APISecret string
	Active    bool
	CreatedAt time.Time
}
