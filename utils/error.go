package utils

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var ErrorRecordNotFound = errors.New("record not found")

var ErrorInvalidUploadTransition = errors.New("invalid upload status transition")

// IsDuplicateEntry reports whether err is a MySQL duplicate-key violation
// (error 1062). Concurrent find-or-create paths use it to retry the lookup.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
