package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure.
// With a constraintName it matches that constraint specifically; otherwise
// any unique violation counts. Matches both the Postgres and sqlite (test
// driver) message shapes.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
