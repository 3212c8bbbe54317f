package util

import (
	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ulid.Make draws from a shared,
// goroutine-safe monotonic entropy source.
func New() string {
	return ulid.Make().String()
}
