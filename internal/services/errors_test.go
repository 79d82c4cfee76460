package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintError(t *testing.T) {
	unique := []error{
		gorm.ErrDuplicatedKey,
		&pgconn.PgError{Code: "23505"},
		&mysql.MySQLError{Number: 1062},
		errors.New("UNIQUE constraint failed: users.username"),
		fmt.Errorf("insert: %w", errors.New("Duplicate entry 'alice' for key 'username'")),
	}
	for _, err := range unique {
		require.True(t, isUniqueConstraintError(err), "expected %v to be a uniqueness violation", err)
	}

	// Foreign key and check failures mention "constraint" too; they must not
	// be reported as conflicts.
	other := []error{
		nil,
		errors.New("FOREIGN KEY constraint failed"),
		errors.New("CHECK constraint failed: incidents"),
		&pgconn.PgError{Code: "23503"},
	}
	for _, err := range other {
		require.False(t, isUniqueConstraintError(err), "expected %v not to be a uniqueness violation", err)
	}
}
