package mapping

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound mirrors internal/storage/sqlite/errors.go's sentinel,
// converted from sql.ErrNoRows at the boundary.
var ErrNotFound = errors.New("not found")

// wrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows to ErrNotFound for consistent handling by callers.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
