package predict

// LaneFeatures walks a lane sequence's point geometry in segment order,
// converting each point into the frame of the obstacle's latest snapshot,
// and emits [lateral, longitudinal, relative heading, curvature] per point
// until LanePointCount points are collected. When the geometry runs short,
// the remaining tuples are linearly extrapolated from the last two emitted
// tuples with curvature pinned to zero.
//
// Returns nil when the latest snapshot is missing or has no position.
func LaneFeatures(obs *Obstacle, seq *LaneSequence, cfg Config) []float64 {
	latest := obs.Latest()
	if latest == nil || latest.Position == nil {
		return nil
	}
	heading := latest.heading()
	target := cfg.LaneFeatureSize()

	values := make([]float64, 0, target)
	for _, segment := range seq.Segments {
		if len(values) >= target {
			break
		}
		for _, point := range segment.Points {
			if len(values) >= target {
				break
			}
			if point.Position == nil {
				continue
			}
			s, l := WorldToRelative(*point.Position, *latest.Position, heading)
			relAngle := NormalizeAngleDelta(point.Heading, heading)
			values = append(values, l, s, relAngle, point.Kappa)
		}
	}

	// Extrapolation needs two full tuples of prior geometry. Each new tuple
	// continues the l and s progressions linearly, repeats the last heading
	// and pins curvature to zero.
	const tuple = singleLaneFeatureSize
	for n := len(values); n >= 2*tuple && n < target; n = len(values) {
		nextL := 2*values[n-tuple] - values[n-2*tuple]
		nextS := 2*values[n-tuple+1] - values[n-2*tuple+1]
		values = append(values, nextL, nextS, values[n-tuple+2], 0)
	}
	return values
}
