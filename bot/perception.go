package bot

import (
	"github.com/lab1702/arena-bot/game"
)

// FindVisibleTarget returns the nearest candidate that is inside detection
// range, inside the sensor cone and not hidden behind anything. It does not
// mutate the agent.
func (a *Agent) FindVisibleTarget() (Target, bool) {
	if a.deps.Muzzle == nil || a.deps.Targets == nil || a.deps.Sight == nil {
		return Target{}, false
	}
	origin, forward, ok := a.deps.Muzzle.MuzzlePose()
	if !ok {
		return Target{}, false
	}

	var closest Target
	found := false
	minDist := a.tuning.DetectionRange

	for _, c := range a.deps.Targets.Targets() {
		if c.ID == a.id {
			continue
		}
		disp := c.Position.Sub(origin)
		d := disp.Len()
		if d > a.tuning.DetectionRange {
			continue
		}
		if game.AngleBetween(forward, disp) > FieldOfViewDeg {
			continue
		}
		if !a.canSee(origin, disp, d, c.ID) {
			continue
		}
		if d < minDist {
			closest = c
			minDist = d
			found = true
		}
	}
	return closest, found
}

// canSee checks that the first obstruction toward the candidate is the
// candidate itself or one of its parts.
func (a *Agent) canSee(origin, disp game.Vec3, d float64, candidateID string) bool {
	if d < 1e-9 {
		return true
	}
	hit, ok := a.deps.Sight.Raycast(origin, disp.Scale(1/d), d, a.tuning.VisibilityMask, a.id)
	if !ok {
		return false
	}
	return hit.ID == candidateID || hit.RootID == candidateID
}
