package uuidx

import "github.com/google/uuid"

// New returns a fresh V7 UUID. V7 identifiers sort by creation time, which
// keeps message and run IDs naturally ordered in logs and stores.
// Panics if the system entropy source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh V7 UUID in its canonical string form.
func NewString() string {
	return New().String()
}
