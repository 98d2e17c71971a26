package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the ISO date format used for date range boundaries.
const DateLayout = "2006-01-02"

// DateRange is a bookable travel window embedded in a Package document.
// CurrentParticipants is a projection of the trip member ledger; only the
// participant sync writes it.
type DateRange struct {
	ID                  string `json:"id" bson:"id" firestore:"id"`
	StartDate           string `json:"startDate" bson:"startDate" firestore:"startDate"`
	EndDate             string `json:"endDate" bson:"endDate" firestore:"endDate"`
	Available           bool   `json:"available" bson:"available" firestore:"available"`
	MaxParticipants     *int   `json:"maxParticipants" bson:"maxParticipants" firestore:"maxParticipants"`
	Notes               string `json:"notes,omitempty" bson:"notes,omitempty" firestore:"notes,omitempty"`
	CurrentParticipants int    `json:"currentParticipants" bson:"currentParticipants" firestore:"currentParticipants"`
}

// HasRoomFor reports whether one more member can enroll given the current headcount.
func (d *DateRange) HasRoomFor(headcount int) bool {
	if d.MaxParticipants == nil {
		return true
	}
	return headcount < *d.MaxParticipants
}

// RemainingSpots returns the free places, and false when the range is unlimited.
func (d *DateRange) RemainingSpots() (int, bool) {
	if d.MaxParticipants == nil {
		return 0, false
	}
	remaining := *d.MaxParticipants - d.CurrentParticipants
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// DateRangeInput carries admin-supplied fields for adding or updating a date range.
// Nil pointers mean "not provided".
type DateRangeInput struct {
	StartDate       *string     `json:"startDate"`
	EndDate         *string     `json:"endDate"`
	Available       *bool       `json:"available"`
	MaxParticipants OptionalInt `json:"maxParticipants"`
	Notes           *string     `json:"notes"`
}

// Apply merges the input into dr and validates the result.
func (in DateRangeInput) Apply(dr *DateRange) error {
	if in.StartDate != nil {
		dr.StartDate = strings.TrimSpace(*in.StartDate)
	}
	if in.EndDate != nil {
		dr.EndDate = strings.TrimSpace(*in.EndDate)
	}
	if in.Available != nil {
		dr.Available = *in.Available
	}
	if in.MaxParticipants.Set {
		dr.MaxParticipants = in.MaxParticipants.Value
	}
	if in.Notes != nil {
		dr.Notes = strings.TrimSpace(*in.Notes)
	}
	return ValidateDateRange(dr)
}

// ValidateDateRange checks date ordering and the capacity field.
func ValidateDateRange(dr *DateRange) error {
	if err := ValidateDateOrder(dr.StartDate, dr.EndDate); err != nil {
		return err
	}
	if dr.MaxParticipants != nil && *dr.MaxParticipants <= 0 {
		return NewValidationError("maxParticipants", "must be a positive integer")
	}
	return nil
}

// ValidateDateOrder requires both dates to parse and start to be strictly before end.
func ValidateDateOrder(startDate, endDate string) error {
	if startDate == "" {
		return NewValidationError("startDate", "is required")
	}
	if endDate == "" {
		return NewValidationError("endDate", "is required")
	}
	start, err := ParseDate(startDate)
	if err != nil {
		return NewValidationError("startDate", "must be a date in YYYY-MM-DD format")
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return NewValidationError("endDate", "must be a date in YYYY-MM-DD format")
	}
	if !start.Before(end) {
		return NewValidationError("endDate", "start date must be before end date")
	}
	return nil
}

// ParseDate accepts YYYY-MM-DD and RFC3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// OptionalInt distinguishes an absent JSON key from an explicit value.
// Set is true whenever the key was present; Value is nil for null, empty or
// unparseable input, which means "unlimited" for maxParticipants.
type OptionalInt struct {
	Set   bool
	Value *int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Trunc(f))
	o.Value = &n
	return nil
}

func (o OptionalInt) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*o.Value)), nil
}

// IntPtr is a small helper for building optional capacities.
func IntPtr(n int) *int {
	return &n
}
