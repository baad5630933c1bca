// Package repository contains the sqlx-backed entity store. Repositories
// return sql.ErrNoRows untouched; services translate it into typed errors.
package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a postgres unique index
// violation. Used as the backstop for per-day and per-award invariants when
// two concurrent creates race past the application pre-check.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
