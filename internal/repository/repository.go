// Package repository provides sqlx-backed data access for the record
// store. Every query is scoped to an owning user; rows belonging to
// another user are indistinguishable from missing rows.
package repository

import "strings"

// isUniqueViolation detects SQLite unique-constraint failures. The
// modernc driver surfaces them as plain errors, so we match the
// message the way the provider error classifier does.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "constraint failed")
}
