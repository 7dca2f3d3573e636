package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/globe-tracker/model"
)

// CameraPose places a camera in scene space looking at a point.
type CameraPose struct {
	Position Vec3 `json:"position"`
	LookAt   Vec3 `json:"look_at"`
}

// PoseFor frames target from standoff units beyond the surface of the unit
// globe: position = normalize(target) * (1 + standoff), lookAt = target.
func PoseFor(target Vec3, standoff float64) (CameraPose, error) {
	return PoseForRadius(target, 1, standoff)
}

// PoseForRadius is PoseFor for a globe of the given radius.
func PoseForRadius(target Vec3, radius, standoff float64) (CameraPose, error) {
	if err := checkRadius(radius); err != nil {
		return CameraPose{}, err
	}
	if standoff < 0 || math.IsNaN(standoff) || math.IsInf(standoff, 0) {
		return CameraPose{}, fmt.Errorf("%w: %v", model.ErrInvalidStandoff, standoff)
	}
	dir, ok := target.Normalize()
	if !ok {
		return CameraPose{}, fmt.Errorf("%w: camera target %v has no direction", model.ErrDegenerateTarget, target)
	}
	return CameraPose{
		Position: dir.Scale(radius + standoff),
		LookAt:   target,
	}, nil
}
