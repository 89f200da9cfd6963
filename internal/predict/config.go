package predict

import "fmt"

// Fixed block sizes. These are a binding contract with the trained models:
// the obstacle block is 23 statistical values plus 9 per history slot, the
// interaction block is 8 values, and each lane point contributes 4 values.
const (
	legacyFeatureSize      = 23
	windowSlotSize         = 9
	InteractionFeatureSize = 8
	singleLaneFeatureSize  = 4
)

// currSize is the "most recent window" sample count used by the legacy
// statistical features.
const currSize = 5

// Config carries the algorithm parameters the featurizers consume.
type Config struct {
	// HistoryWindow is the number of per-frame slots in the windowed
	// relative-kinematics block (W).
	HistoryWindow int `json:"history_window"`

	// TrajectoryTimeHorizon bounds how far back (seconds) the history walk
	// goes; older samples are discarded.
	TrajectoryTimeHorizon float64 `json:"trajectory_time_horizon"`

	// DefaultNeighborS / DefaultNeighborL are the sentinel offsets emitted
	// when a lane sequence has no forward or backward obstacle.
	DefaultNeighborS float64 `json:"default_neighbor_s"`
	DefaultNeighborL float64 `json:"default_neighbor_l"`

	// LanePointCount is the number of lane points in the geometry block (P).
	LanePointCount int `json:"lane_point_count"`

	// Epsilon guards divisions in rate computations.
	Epsilon float64 `json:"epsilon"`

	// OfflineMode records raw feature vectors instead of invoking a model.
	OfflineMode bool `json:"offline_mode"`
}

// DefaultConfig returns the parameter set the shipped models were trained
// against.
func DefaultConfig() Config {
	return Config{
		HistoryWindow:         5,
		TrajectoryTimeHorizon: 8.0,
		DefaultNeighborS:      100.0,
		DefaultNeighborL:      50.0,
		LanePointCount:        20,
		Epsilon:               1e-6,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.HistoryWindow < 0 {
		return fmt.Errorf("history_window must be non-negative, got %d", c.HistoryWindow)
	}
	if c.TrajectoryTimeHorizon <= 0 {
		return fmt.Errorf("trajectory_time_horizon must be positive, got %v", c.TrajectoryTimeHorizon)
	}
	if c.DefaultNeighborS <= 0 {
		return fmt.Errorf("default_neighbor_s must be positive, got %v", c.DefaultNeighborS)
	}
	if c.LanePointCount < 1 {
		return fmt.Errorf("lane_point_count must be positive, got %d", c.LanePointCount)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %v", c.Epsilon)
	}
	return nil
}

// ObstacleFeatureSize is the expected length of the obstacle block.
func (c Config) ObstacleFeatureSize() int {
	return legacyFeatureSize + windowSlotSize*c.HistoryWindow
}

// LaneFeatureSize is the expected length of the lane-geometry block.
func (c Config) LaneFeatureSize() int {
	return singleLaneFeatureSize * c.LanePointCount
}

// TotalFeatureSize is the invariant total length of a feature vector.
func (c Config) TotalFeatureSize() int {
	return c.ObstacleFeatureSize() + InteractionFeatureSize + c.LaneFeatureSize()
}
