package predict

// neighbor is the forward or backward obstacle selected along a lane
// sequence. present distinguishes a real selection from the virtual
// sentinel; the numeric defaults only survive to the emitted block.
type neighbor struct {
	present bool
	id      int
	s       float64
	l       float64
}

// InteractionFeatures scans a lane sequence's recorded nearby obstacles and
// emits the 8-value interaction block: {s, l, length, speed} for the
// nearest forward obstacle, then the nearest backward obstacle. Neighbor
// attributes are resolved through the registry; an unresolvable id is
// treated as no neighbor (zero length and speed).
func InteractionFeatures(seq *LaneSequence, registry Registry, cfg Config) []float64 {
	forward := neighbor{s: cfg.DefaultNeighborS, l: cfg.DefaultNeighborL}
	backward := neighbor{s: -cfg.DefaultNeighborS, l: cfg.DefaultNeighborL}

	for _, nb := range seq.NearbyObstacles {
		if nb.S < 0 {
			// Backward candidates compete by offset closest to zero.
			if nb.S > backward.s {
				backward = neighbor{present: true, id: nb.ID, s: nb.S, l: nb.L}
			}
		} else {
			if nb.S < forward.s {
				forward = neighbor{present: true, id: nb.ID, s: nb.S, l: nb.L}
			}
		}
	}

	values := make([]float64, 0, InteractionFeatureSize)
	for _, n := range [2]neighbor{forward, backward} {
		values = append(values, n.s, n.l)
		length, speed := 0.0, 0.0
		if n.present && registry != nil {
			if other := registry.Obstacle(n.id); other != nil {
				if latest := other.Latest(); latest != nil {
					length = latest.Length
					speed = latest.Speed
				}
			}
		}
		values = append(values, length, speed)
	}
	return values
}
