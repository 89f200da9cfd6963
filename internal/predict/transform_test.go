package predict

import (
	"math"
	"testing"
)

// relativeToWorld is the paired inverse of WorldToRelative: rotate the
// relative frame back and translate by the origin.
func relativeToWorld(s, l float64, origin Vec2, heading float64) Vec2 {
	return Vec2{
		X: origin.X + s*math.Cos(heading) - l*math.Sin(heading),
		Y: origin.Y + s*math.Sin(heading) + l*math.Cos(heading),
	}
}

func TestWorldToRelativeIdentityFrame(t *testing.T) {
	s, l := WorldToRelative(Vec2{X: 3, Y: 4}, Vec2{}, 0)
	if math.Abs(s-3) > 1e-12 || math.Abs(l-4) > 1e-12 {
		t.Errorf("identity frame: got (%v, %v), want (3, 4)", s, l)
	}
}

func TestWorldToRelativeRotatedFrame(t *testing.T) {
	// Heading pi/2 points the longitudinal axis along world +Y.
	s, l := WorldToRelative(Vec2{X: 0, Y: 2}, Vec2{}, math.Pi/2)
	if math.Abs(s-2) > 1e-12 || math.Abs(l) > 1e-12 {
		t.Errorf("rotated frame: got (%v, %v), want (2, 0)", s, l)
	}

	// A point to the left of the heading has positive lateral offset.
	s, l = WorldToRelative(Vec2{X: -1, Y: 0}, Vec2{}, math.Pi/2)
	if math.Abs(s) > 1e-12 || math.Abs(l-1) > 1e-12 {
		t.Errorf("left of heading: got (%v, %v), want (0, 1)", s, l)
	}
}

func TestWorldToRelativeRoundTrip(t *testing.T) {
	points := []Vec2{
		{X: 0, Y: 0},
		{X: 12.5, Y: -3.25},
		{X: -100, Y: 42},
		{X: 1e-9, Y: 7},
	}
	origins := []Vec2{
		{X: 0, Y: 0},
		{X: 5.5, Y: -2},
		{X: -31.7, Y: 18.4},
	}
	headings := []float64{0, 0.3, -1.2, math.Pi / 2, math.Pi, -math.Pi + 0.01, 2.9}

	for _, p := range points {
		for _, origin := range origins {
			for _, heading := range headings {
				s, l := WorldToRelative(p, origin, heading)
				back := relativeToWorld(s, l, origin, heading)
				if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
					t.Errorf("round trip p=%v origin=%v heading=%v: got %v", p, origin, heading, back)
				}
			}
		}
	}
}

func TestNormalizeAngleDeltaRange(t *testing.T) {
	for a := -12.0; a <= 12.0; a += 0.1 {
		for h := -6.0; h <= 6.0; h += 0.25 {
			got := NormalizeAngleDelta(a, h)
			if got <= -math.Pi || got > math.Pi {
				t.Fatalf("NormalizeAngleDelta(%v, %v) = %v out of (-pi, pi]", a, h, got)
			}
		}
	}
}

func TestNormalizeAngleDeltaValues(t *testing.T) {
	cases := []struct {
		angle, heading, want float64
	}{
		{0, 0, 0},
		{math.Pi, 0, math.Pi},
		{-math.Pi, 0, math.Pi},
		{3 * math.Pi, 0, math.Pi},
		{0.5, 0.2, 0.3},
		{-3, 3, 2*math.Pi - 6},
	}
	for _, c := range cases {
		got := NormalizeAngleDelta(c.angle, c.heading)
		if math.Abs(got-c.want) > 1e-12 {
			t.Errorf("NormalizeAngleDelta(%v, %v) = %v, want %v", c.angle, c.heading, got, c.want)
		}
	}
}
