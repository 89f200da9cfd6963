package predict

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func subjectAtOrigin() *Obstacle {
	return &Obstacle{ID: 1, History: []*Snapshot{{
		Timestamp:       1000,
		Position:        &Vec2{},
		VelocityHeading: ptrFloat(0),
	}}}
}

func TestLaneFeaturesNoPosition(t *testing.T) {
	obs := &Obstacle{ID: 1, History: []*Snapshot{{Timestamp: 1000}}}
	seq := &LaneSequence{Segments: []LaneSegment{{Points: []LanePoint{{Position: &Vec2{X: 1}}}}}}

	if got := LaneFeatures(obs, seq, DefaultConfig()); got != nil {
		t.Errorf("expected nil without subject position, got %d values", len(got))
	}
}

func TestLaneFeaturesFullGeometry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LanePointCount = 4

	points := make([]LanePoint, 0, 6)
	for i := 0; i < 6; i++ {
		points = append(points, LanePoint{
			Position: &Vec2{X: float64(i + 1), Y: 0.5 * float64(i)},
			Heading:  0.1,
			Kappa:    0.01,
		})
	}
	seq := &LaneSequence{Segments: []LaneSegment{{Points: points[:3]}, {Points: points[3:]}}}

	got := LaneFeatures(subjectAtOrigin(), seq, cfg)
	if len(got) != cfg.LaneFeatureSize() {
		t.Fatalf("lane feature size = %d, want %d", len(got), cfg.LaneFeatureSize())
	}

	// Emission order per point is [lateral, longitudinal, heading, kappa];
	// collection stops after P points even though 6 are available.
	for i := 0; i < 4; i++ {
		base := i * 4
		if math.Abs(got[base]-0.5*float64(i)) > 1e-9 {
			t.Errorf("point %d lateral = %v, want %v", i, got[base], 0.5*float64(i))
		}
		if math.Abs(got[base+1]-float64(i+1)) > 1e-9 {
			t.Errorf("point %d longitudinal = %v, want %v", i, got[base+1], float64(i+1))
		}
		if math.Abs(got[base+2]-0.1) > 1e-9 {
			t.Errorf("point %d heading = %v, want 0.1", i, got[base+2])
		}
		if math.Abs(got[base+3]-0.01) > 1e-9 {
			t.Errorf("point %d kappa = %v, want 0.01", i, got[base+3])
		}
	}
}

func TestLaneFeaturesSkipsPointsWithoutPosition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LanePointCount = 2

	seq := &LaneSequence{Segments: []LaneSegment{{Points: []LanePoint{
		{Heading: 0.5}, // no position, skipped
		{Position: &Vec2{X: 1}, Kappa: 0.1},
		{Position: &Vec2{X: 2}, Kappa: 0.2},
	}}}}

	got := LaneFeatures(subjectAtOrigin(), seq, cfg)
	want := []float64{0, 1, 0, 0.1, 0, 2, 0, 0.2}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("lane features mismatch (-want +got):\n%s", diff)
	}
}

func TestLaneFeaturesExtrapolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LanePointCount = 4

	seq := &LaneSequence{Segments: []LaneSegment{{Points: []LanePoint{
		{Position: &Vec2{X: 1, Y: 0}, Heading: 0, Kappa: 0.01},
		{Position: &Vec2{X: 2, Y: 0.5}, Heading: 0, Kappa: 0.02},
	}}}}

	got := LaneFeatures(subjectAtOrigin(), seq, cfg)
	if len(got) != cfg.LaneFeatureSize() {
		t.Fatalf("lane feature size = %d, want %d", len(got), cfg.LaneFeatureSize())
	}

	// Two real tuples [0,1,0,0.01] and [0.5,2,0,0.02]; the remaining two
	// continue l and s linearly with heading repeated and zero curvature.
	want := []float64{
		0, 1, 0, 0.01,
		0.5, 2, 0, 0.02,
		1.0, 3, 0, 0,
		1.5, 4, 0, 0,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("lane features mismatch (-want +got):\n%s", diff)
	}
}

func TestLaneFeaturesSinglePointNoExtrapolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LanePointCount = 4

	seq := &LaneSequence{Segments: []LaneSegment{{Points: []LanePoint{
		{Position: &Vec2{X: 1}},
	}}}}

	// One tuple is not enough to extrapolate from; the short block is the
	// caller's size-mismatch signal.
	got := LaneFeatures(subjectAtOrigin(), seq, cfg)
	if len(got) != singleLaneFeatureSize {
		t.Errorf("lane feature size = %d, want %d (no extrapolation)", len(got), singleLaneFeatureSize)
	}
}
