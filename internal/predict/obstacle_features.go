package predict

// ObstacleFeatures aggregates an obstacle's recent history into the
// obstacle-kinematic block: 23 statistical values over the lane-related
// history, followed by HistoryWindow slots of 9 relative-kinematic values
// each. The relative frame is anchored at the latest snapshot's position
// and heading.
//
// Returns nil when no walked snapshot carried lane-relation data; the
// caller treats that as a size mismatch for the sequence.
func ObstacleFeatures(obs *Obstacle, cfg Config) []float64 {
	latest := obs.Latest()
	if latest == nil {
		return nil
	}
	refHeading := latest.heading()
	refPos := Vec2{}
	if latest.Position != nil {
		refPos = *latest.Position
	}
	startTime := obs.Timestamp() - cfg.TrajectoryTimeHorizon

	// Parallel arrays for the statistical block, in walk order (newest
	// first). Only snapshots with lane-relation data contribute.
	var (
		thetas     []float64
		laneLs     []float64
		distLBs    []float64
		distRBs    []float64
		turnTypes  []LaneTurn
		speeds     []float64
		timestamps []float64
	)

	w := cfg.HistoryWindow
	hasHistory := make([]float64, w)
	for i := range hasHistory {
		hasHistory[i] = 1
	}
	posHistory := make([]Vec2, w)
	velHistory := make([]Vec2, w)
	accHistory := make([]Vec2, w)
	headingHistory := make([]float64, w)
	headingRateHistory := make([]float64, w)

	prevTimestamp := latest.Timestamp
	for i := 0; i < len(obs.History); i++ {
		snap := obs.History[i]
		if snap == nil {
			continue
		}
		if snap.Timestamp < startTime {
			break
		}
		if snap.Lane != nil {
			thetas = append(thetas, snap.Lane.AngleDiff)
			laneLs = append(laneLs, snap.Lane.LaneL)
			distLBs = append(distLBs, snap.Lane.DistLeft)
			distRBs = append(distRBs, snap.Lane.DistRight)
			turnTypes = append(turnTypes, snap.Lane.LaneTurnType)
			timestamps = append(timestamps, snap.Timestamp)
			speeds = append(speeds, snap.Speed)
		}

		// Windowed relative kinematics. Slot index is the raw history index,
		// and a broken slot poisons every older slot: history is only as
		// good as its most recent unbroken run.
		if i >= w {
			continue
		}
		if i != 0 && hasHistory[i-1] == 0 {
			hasHistory[i] = 0
			continue
		}
		if snap.Position != nil {
			s, l := WorldToRelative(*snap.Position, refPos, refHeading)
			posHistory[i] = Vec2{X: s, Y: l}
		} else {
			hasHistory[i] = 0
		}
		if snap.Velocity != nil {
			velHistory[i] = relativeVector(*snap.Velocity, refPos, refHeading)
		} else {
			hasHistory[i] = 0
		}
		if snap.Acceleration != nil {
			accHistory[i] = relativeVector(*snap.Acceleration, refPos, refHeading)
		} else {
			hasHistory[i] = 0
		}
		if snap.VelocityHeading != nil {
			headingHistory[i] = NormalizeAngleDelta(*snap.VelocityHeading, refHeading)
			if i != 0 {
				headingRateHistory[i] = (headingHistory[i-1] - headingHistory[i]) /
					(cfg.Epsilon + snap.Timestamp - prevTimestamp)
				prevTimestamp = snap.Timestamp
			}
		} else {
			hasHistory[i] = 0
		}
	}
	if len(timestamps) == 0 {
		return nil
	}

	values := make([]float64, 0, cfg.ObstacleFeatureSize())
	values = appendLegacyFeatures(values, legacyInput{
		histSize:   len(obs.History),
		thetas:     thetas,
		laneLs:     laneLs,
		distLBs:    distLBs,
		distRBs:    distRBs,
		turnTypes:  turnTypes,
		speeds:     speeds,
		timestamps: timestamps,
	}, cfg.Epsilon)

	for i := 0; i < w; i++ {
		values = append(values,
			hasHistory[i],
			posHistory[i].X, posHistory[i].Y,
			velHistory[i].X, velHistory[i].Y,
			accHistory[i].X, accHistory[i].Y,
			headingHistory[i], headingRateHistory[i],
		)
	}
	return values
}

// relativeVector rotates a world-frame vector (velocity, acceleration) into
// the reference frame. WorldToRelative is affine, so the translation bias
// is removed by differencing against the transformed origin.
func relativeVector(v, refPos Vec2, refHeading float64) Vec2 {
	endS, endL := WorldToRelative(v, refPos, refHeading)
	begS, begL := WorldToRelative(Vec2{}, refPos, refHeading)
	return Vec2{X: endS - begS, Y: endL - begL}
}

type legacyInput struct {
	histSize   int
	thetas     []float64
	laneLs     []float64
	distLBs    []float64
	distRBs    []float64
	turnTypes  []LaneTurn
	speeds     []float64
	timestamps []float64
}

// appendLegacyFeatures emits the 23 statistical values. Ordering is a model
// contract; do not reorder.
func appendLegacyFeatures(values []float64, in legacyInput, epsilon float64) []float64 {
	thetaMean := meanRange(in.thetas, 0, in.histSize-1)
	thetaFiltered := meanRange(in.thetas, 0, currSize-1)
	laneLMean := meanRange(in.laneLs, 0, in.histSize-1)
	laneLFiltered := meanRange(in.laneLs, 0, currSize-1)
	speedMean := meanRange(in.speeds, 0, in.histSize-1)

	last := len(in.timestamps) - 1
	timeDiff := in.timestamps[0] - in.timestamps[last]
	distLBRate := 0.0
	distRBRate := 0.0
	if len(in.timestamps) > 1 {
		distLBRate = (in.distLBs[0] - in.distLBs[last]) / timeDiff
		distRBRate = (in.distRBs[0] - in.distRBs[last]) / timeDiff
	}

	deltaT := 0.0
	if len(in.timestamps) > 1 {
		deltaT = timeDiff / float64(len(in.timestamps)-1)
	}

	angleCurr := meanRange(in.thetas, 0, currSize-1)
	anglePrev := meanRange(in.thetas, currSize, 2*currSize-1)
	angleDiff := 0.0
	if in.histSize >= 2*currSize {
		angleDiff = angleCurr - anglePrev
	}

	laneLCurr := meanRange(in.laneLs, 0, currSize-1)
	laneLPrev := meanRange(in.laneLs, currSize, 2*currSize-1)
	laneLDiff := 0.0
	if in.histSize >= 2*currSize {
		laneLDiff = laneLCurr - laneLPrev
	}

	angleDiffRate := 0.0
	laneLDiffRate := 0.0
	if deltaT > epsilon {
		angleDiffRate = angleDiff / (deltaT * currSize)
		laneLDiffRate = laneLDiff / (deltaT * currSize)
	}

	acc := 0.0
	jerk := 0.0
	if len(in.speeds) >= 3*currSize && deltaT > epsilon {
		speed1st := meanRange(in.speeds, 0, currSize-1)
		speed2nd := meanRange(in.speeds, currSize, 2*currSize-1)
		speed3rd := meanRange(in.speeds, 2*currSize, 3*currSize-1)
		acc = (speed1st - speed2nd) / (currSize * deltaT)
		jerk = (speed1st - 2*speed2nd + speed3rd) / (currSize * currSize * deltaT * deltaT)
	}

	distLBRateCurr := 0.0
	if in.histSize >= 2*currSize && deltaT > epsilon {
		distLBCurr := meanRange(in.distLBs, 0, currSize-1)
		distLBPrev := meanRange(in.distLBs, currSize, 2*currSize-1)
		distLBRateCurr = (distLBCurr - distLBPrev) / (currSize * deltaT)
	}

	distRBRateCurr := 0.0
	if in.histSize >= 2*currSize && deltaT > epsilon {
		distRBCurr := meanRange(in.distRBs, 0, currSize-1)
		distRBPrev := meanRange(in.distRBs, currSize, 2*currSize-1)
		distRBRateCurr = (distRBCurr - distRBPrev) / (currSize * deltaT)
	}

	values = append(values, thetaFiltered, thetaMean, thetaFiltered-thetaMean, angleDiff, angleDiffRate)
	values = append(values, laneLFiltered, laneLMean, laneLFiltered-laneLMean, laneLDiff, laneLDiffRate)
	values = append(values, speedMean, acc, jerk)
	values = append(values, in.distLBs[0], distLBRate, distLBRateCurr)
	values = append(values, in.distRBs[0], distRBRate, distRBRateCurr)
	for code := LaneTurn(0); code < laneTurnCategories; code++ {
		if in.turnTypes[0] == code {
			values = append(values, 1)
		} else {
			values = append(values, 0)
		}
	}
	return values
}

// meanRange computes the mean of vals[start..end] (inclusive, clamped to
// the slice). Returns 0 for an empty range.
func meanRange(vals []float64, start, end int) float64 {
	count := 0
	sum := 0.0
	for i := start; i <= end && i < len(vals); i++ {
		sum += vals[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
