package utils

import (
	"strings"
)

// NormalizeEmail lowercases and trims an email address for matching
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CleanCell trims a spreadsheet cell value; empty and whitespace-only become ""
func CleanCell(value string) string {
	return strings.TrimSpace(value)
}
