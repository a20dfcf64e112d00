// internal/common/database/connect.go
package database

import (
	"context"
	"errors"
)

// Conn is a client that can be health-checked and released.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

// PingOrClose pings c and closes it when the ping fails, so a retried
// connect does not leave earlier pools open.
func PingOrClose(ctx context.Context, c Conn) error {
	err := c.Ping(ctx)
	if err == nil {
		return nil
	}
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}
