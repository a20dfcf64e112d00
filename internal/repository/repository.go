// internal/repository/repository.go
package repository

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// validID reports whether id can be a primary key. Non-UUID ids cannot match
// any row, so callers treat them as not found without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
