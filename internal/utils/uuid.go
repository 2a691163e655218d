package utils

import "github.com/google/uuid"

// IsUUID reports whether s parses as a UUID. Path params are rejected
// before any repo call so malformed ids never reach the datastore.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
