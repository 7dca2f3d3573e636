package model

import "errors"

var (
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrDegenerateTarget    = errors.New("degenerate target")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrInvalidRadius       = errors.New("invalid radius")
	ErrInvalidStandoff     = errors.New("invalid standoff distance")
	ErrOffSphere           = errors.New("point is not on the sphere")
)
