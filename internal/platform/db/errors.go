package db

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
)

// IsDuplicateKey reports whether err is a MySQL unique key violation.
func IsDuplicateKey(err error) bool {
	return mysqlErrorNumber(err) == mysqlDuplicateEntry
}

// IsRetryable reports whether the whole transaction can be run again: InnoDB already rolled it
// back as a deadlock victim or gave up waiting for a row lock.
func IsRetryable(err error) bool {
	n := mysqlErrorNumber(err)
	return n == mysqlDeadlock || n == mysqlLockWaitTimeout
}

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
