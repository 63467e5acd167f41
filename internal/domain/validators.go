package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxNameLength      = 100
	MaxImageNameLength = 255
)

// ValidatePlayerRequest checks a create/update request against the current
// time and returns one "<field>: <message>" entry per violated field.
func ValidatePlayerRequest(req *PlayerRequest, now time.Time) []string {
	if req == nil {
		return []string{"body: Request body is required"}
	}

	var errs []string

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		errs = append(errs, "name: Player name is required and cannot be blank")
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs = append(errs, "name: Player name must be at most 100 characters")
	}

	switch {
	case req.Birthday == nil:
		errs = append(errs, "birthday: Birthday is required")
	case !req.Birthday.Before(DateOf(now).Time):
		errs = append(errs, "birthday: Birthday must be in the past")
	}

	if req.ImageName != nil && utf8.RuneCountInString(strings.TrimSpace(*req.ImageName)) > MaxImageNameLength {
		errs = append(errs, "imageName: Image name must be at most 255 characters")
	}

	if strings.TrimSpace(req.Status) != "" {
		if _, err := ParseStatus(req.Status); err != nil {
			errs = append(errs, "status: Status must be one of ACTIVE, INACTIVE")
		}
	}

	return errs
}
