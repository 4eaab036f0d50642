package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
)

// Helper functions for type conversions between API types and internal models

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// uuidToString converts types.UUID to string
func uuidToString(u types.UUID) string {
	return uuid.UUID(u).String()
}

// dateInLocation turns a calendar date into local midnight so it maps back to the same record day
func dateInLocation(d types.Date, loc *time.Location) time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// datePtrInLocation converts an optional date; nil means today
func datePtrInLocation(d *types.Date, loc *time.Location) *time.Time {
	if d == nil {
		return nil
	}
	t := dateInLocation(*d, loc)
	return &t
}

// derefString returns the empty string for nil
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
