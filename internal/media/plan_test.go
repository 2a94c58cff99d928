package media

import (
	"errors"
	"testing"
)

func keyframesAt(times ...float64) []Keyframe {
	kfs := make([]Keyframe, len(times))
	for i, t := range times {
		kfs[i] = Keyframe{Index: i, TimestampSec: t}
	}
	return kfs
}

func TestBuildFramePlanLength(t *testing.T) {
	tests := []struct {
		name     string
		times    []float64
		duration float64
		want     int
	}{
		{"single keyframe", []float64{0.0}, 10.0, 4},
		{"two keyframes", []float64{0.0, 5.0}, 10.0, 7},
		{"three keyframes", []float64{0.0, 3.0, 6.0}, 10.0, 10},
		{"five keyframes", []float64{0.0, 2.0, 5.0, 9.0, 9.5}, 10.0, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildFramePlan(keyframesAt(tt.times...), tt.duration)
			if err != nil {
				t.Fatalf("BuildFramePlan error: %v", err)
			}
			if len(plan) != tt.want {
				t.Errorf("plan length = %d, want %d (plan: %v)", len(plan), tt.want, plan)
			}
		})
	}
}

func TestBuildFramePlanEmptyKeyframes(t *testing.T) {
	_, err := BuildFramePlan(nil, 10.0)
	if !errors.Is(err, ErrEmptyKeyframeSet) {
		t.Errorf("expected ErrEmptyKeyframeSet, got %v", err)
	}
}

func TestBuildFramePlanBoundaries(t *testing.T) {
	plan, err := BuildFramePlan(keyframesAt(1.5, 4.0, 7.0), 12.0)
	if err != nil {
		t.Fatalf("BuildFramePlan error: %v", err)
	}

	if plan[0] != "1.50" {
		t.Errorf("first element = %q, want %q", plan[0], "1.50")
	}
	if plan[len(plan)-1] != "11.90" {
		t.Errorf("last element = %q, want duration-0.1 = %q", plan[len(plan)-1], "11.90")
	}
}

func TestBuildFramePlanNonDecreasing(t *testing.T) {
	plan, err := BuildFramePlan(keyframesAt(0.0, 2.0, 5.0, 9.0, 9.0), 10.0)
	if err != nil {
		t.Fatalf("BuildFramePlan error: %v", err)
	}

	// duplicate keyframes must collapse to repeated timestamps, not crash
	if len(plan) != 16 {
		t.Errorf("plan length = %d, want 16", len(plan))
	}

	var prev float64 = -1
	for _, ts := range plan {
		sec, err := ParseTimestamp(ts)
		if err != nil {
			t.Fatalf("unparsable timestamp %q: %v", ts, err)
		}
		if sec < prev {
			t.Errorf("plan not non-decreasing: %v before %v", prev, sec)
		}
		prev = sec
	}
}

func TestBuildFramePlanInteriorThirds(t *testing.T) {
	plan, err := BuildFramePlan(keyframesAt(0.0, 3.0), 6.0)
	if err != nil {
		t.Fatalf("BuildFramePlan error: %v", err)
	}

	want := []string{"0.00", "1.00", "2.00", "3.00", "3.97", "4.93", "5.90"}
	if len(plan) != len(want) {
		t.Fatalf("plan = %v, want %v", plan, want)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Errorf("plan[%d] = %q, want %q", i, plan[i], want[i])
		}
	}
}

func TestFramePlanUnique(t *testing.T) {
	plan := FramePlan{"9.00", "9.00", "9.00", "9.30", "9.60", "9.90"}
	unique := plan.Unique()
	if len(unique) != 4 {
		t.Errorf("Unique() = %v, want 4 entries", unique)
	}
	if unique[0] != "9.00" || unique[3] != "9.90" {
		t.Errorf("Unique() order not preserved: %v", unique)
	}
}
