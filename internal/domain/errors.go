package domain

import "errors"

var (
	// ErrUnknownLevel is returned when a level code is not one of NONE, D0-D4.
	ErrUnknownLevel = errors.New("unknown intensity level")

	// ErrInvalidDate is returned for dates that are neither YYYYMMDD nor YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrRegionNotFound is returned when no series file backs a region identifier.
	ErrRegionNotFound = errors.New("region not found")

	// ErrInvalidRegion is returned for region identifiers that cannot name a file.
	ErrInvalidRegion = errors.New("invalid region identifier")

	// ErrUnknownControl is returned for events naming a control the dashboard lacks.
	ErrUnknownControl = errors.New("unknown control")

	// ErrInvalidControlValue is returned when an event value is out of the control's domain.
	ErrInvalidControlValue = errors.New("invalid control value")
)
