package model

import "github.com/oklog/ulid/v2"

// NewID generates a new ULID string for use as a job identifier. ULIDs carry
// 80 bits of randomness, so ids are collision-free and not guessable.
func NewID() string {
	return ulid.Make().String()
}
