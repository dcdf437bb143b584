// Package sqlutil provides SQL identifier helpers for polyseed.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a MySQL identifier (table or column name) with
// backticks, doubling any embedded backticks.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// validIdentifierRegex restricts identifiers to alphanumeric and underscore.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier reports whether name is a safe MySQL identifier.
// Seed table names are built from configuration, so this is validated
// before any DDL or DML is issued.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe validates and quotes an identifier, returning an
// error for names containing anything outside [a-zA-Z0-9_].
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}
