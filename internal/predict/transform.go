package predict

import "math"

// WorldToRelative converts a world-frame point into the frame anchored at
// origin and rotated to originHeading. The point is translated by -origin,
// converted to polar form, rotated by -originHeading and re-projected.
// Returns the longitudinal (s, along heading) and lateral (l, left of
// heading) components. Pure function; finite inputs assumed.
func WorldToRelative(p, origin Vec2, originHeading float64) (s, l float64) {
	dx := p.X - origin.X
	dy := p.Y - origin.Y
	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dy, dx) - originHeading
	return math.Cos(theta) * rho, math.Sin(theta) * rho
}

// NormalizeAngleDelta returns worldAngle - originHeading wrapped to
// (-pi, pi].
func NormalizeAngleDelta(worldAngle, originHeading float64) float64 {
	return wrapAngle(worldAngle - originHeading)
}

// wrapAngle maps an arbitrary angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	m := math.Mod(math.Pi-a, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return math.Pi - m
}
