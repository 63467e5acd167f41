package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a player. Only the two constants below are valid.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// ParseStatus accepts either status in any letter case and returns its canonical form.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("invalid status %q", s)
	}
}

// ErrInvalidDate is returned when a JSON date is not a YYYY-MM-DD string.
var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day, held as midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: must be a %s string", ErrInvalidDate, DateLayout)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return fmt.Errorf("%w: must be a %s string", ErrInvalidDate, DateLayout)
	}
	*d = parsed
	return nil
}

// Player represents a players row.
type Player struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Birthday  Date      `json:"birthday"`
	ImageName *string   `json:"imageName"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlayerRequest is the writable shape accepted by create and update.
type PlayerRequest struct {
	Name      string  `json:"name"`
	Birthday  *Date   `json:"birthday"`
	ImageName *string `json:"imageName"`
	Status    string  `json:"status"`
}

// PlayerResponse is the read-only shape returned by the API.
type PlayerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Birthday  Date      `json:"birthday"`
	ImageName *string   `json:"imageName"`
	Status    Status    `json:"status"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusCounts holds per-status row counts read from one snapshot.
type StatusCounts struct {
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

// Total is active plus inactive.
func (c StatusCounts) Total() int64 {
	return c.Active + c.Inactive
}

// ImageLink is a time-limited download URL for a player's image.
type ImageLink struct {
	ImageName string    `json:"imageName"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AgeAt is the calendar-year difference between now and the birthday.
// The age-range filter uses the same formula via BirthdayBoundsForAges.
func AgeAt(birthday Date, now time.Time) int {
	return now.UTC().Year() - birthday.Year()
}

// MaxAgeAt is the largest age AgeAt can report at now: a birthday in year 1.
func MaxAgeAt(now time.Time) int {
	return now.UTC().Year() - 1
}

// BirthdayBoundsForAges returns the inclusive birthday range whose AgeAt(now)
// lies within [minAge, maxAge]. Ages are clamped to [0, MaxAgeAt(now)] so the
// bounds stay inside the calendar the store accepts; callers handle
// minAge > MaxAgeAt(now), which no birthday can satisfy.
func BirthdayBoundsForAges(minAge, maxAge int, now time.Time) (start, end Date) {
	year := now.UTC().Year()
	minAge = max(0, min(minAge, MaxAgeAt(now)))
	maxAge = max(0, min(maxAge, MaxAgeAt(now)))
	start = NewDate(year-maxAge, time.January, 1)
	end = NewDate(year-minAge, time.December, 31)
	return start, end
}
