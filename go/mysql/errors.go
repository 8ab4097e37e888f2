/*
   Copyright 2016 GitHub Inc.
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package mysql

import (
	"errors"
	"net"
	"strings"

	driver "github.com/go-sql-driver/mysql"
)

// Error numbers this package recognizes by inspecting the driver's
// *mysql.MySQLError, per spec §7's error-kind taxonomy.
const (
	erStatementTimeout = 1969 // ER_STATEMENT_TIMEOUT (MariaDB max_statement_time)
	erAccessDeniedError = 1045
	erSpecificAccessDeniedError = 1227
	erDbAccessDeniedError = 1044
	erTableAccessDeniedError = 1142
)

// IsTransientNetworkError reports whether err looks like a network failure
// rather than a semantic SQL error: dropped connection, refused connection,
// DNS failure, a net.Error timeout, or driver.ErrBadConn/ErrInvalidConn.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"broken pipe",
		"connection reset by peer",
		"invalid connection",
		"bad connection",
		"EOF",
		"no such host",
		"i/o timeout",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsStatementTimeoutError reports whether err is the backend-side
// max_statement_time interruption (ER_STATEMENT_TIMEOUT), which spec §4.2
// treats as retryable exactly like a network error.
func IsStatementTimeoutError(err error) bool {
	var mysqlErr *driver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == erStatementTimeout
	}
	return strings.Contains(err.Error(), "max_statement_time exceeded")
}

// IsRetryable is the single predicate execute_cmd_time_limit's retry loop
// consults: network errors and backend statement timeouts retry, anything
// else terminates the loop immediately (spec §4.2).
func IsRetryable(err error) bool {
	return IsTransientNetworkError(err) || IsStatementTimeoutError(err)
}

// IsAccessDeniedError reports an authorization failure (spec §7's
// "Authorization" kind): ER_ACCESS_DENIED_ERROR and its table/db-scoped
// siblings.
func IsAccessDeniedError(err error) bool {
	var mysqlErr *driver.MySQLError
	if !errors.As(err, &mysqlErr) {
		return false
	}
	switch mysqlErr.Number {
	case erAccessDeniedError, erSpecificAccessDeniedError, erDbAccessDeniedError, erTableAccessDeniedError:
		return true
	default:
		return false
	}
}
