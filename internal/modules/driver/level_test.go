package driver

import (
	"math"
	"testing"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		trips    int
		wantNum  int
		wantName string
	}{
		{0, 1, "Rookie"},
		{4, 1, "Rookie"},
		{5, 2, "Apprentice"},
		{29, 3, "Regular"},
		{30, 4, "Skilled"},
		{99, 6, "Expert"},
		{100, 7, "Veteran"},
		{299, 9, "Master"},
		{300, 10, "Legend"},
		{5000, 10, "Legend"},
	}
	for _, tt := range tests {
		l := LevelFor(tt.trips)
		if l.Number != tt.wantNum || l.Name != tt.wantName {
			t.Errorf("LevelFor(%d) = %d %s, want %d %s", tt.trips, l.Number, l.Name, tt.wantNum, tt.wantName)
		}
	}
}

func TestNextLevel(t *testing.T) {
	next, ok := NextLevel(12)
	if !ok || next.MinTrips != 15 {
		t.Fatalf("expected next level at 15 trips, got %+v %v", next, ok)
	}
	if _, ok := NextLevel(300); ok {
		t.Fatal("expected no level after Legend")
	}
}

func TestRatingModifier(t *testing.T) {
	tests := []struct {
		rating float64
		want   float64
	}{
		{5.0, 1.2},
		{4.8, 1.2},
		{4.79, 1.15},
		{4.5, 1.15},
		{4.0, 1.1},
		{3.5, 1.0},
		{3.0, 1.0},
		{2.99, 0.9},
	}
	for _, tt := range tests {
		if got := RatingModifier(tt.rating); got != tt.want {
			t.Errorf("RatingModifier(%v) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}

func TestBonusRate(t *testing.T) {
	if got := BonusRate(0, 5.0); got != 0 {
		t.Fatalf("rookies get no bonus, got %v", got)
	}
	// Veteran 12% scaled by 1.2
	if got := BonusRate(120, 4.9); math.Abs(got-0.144) > 1e-9 {
		t.Fatalf("BonusRate(120, 4.9) = %v, want 0.144", got)
	}
	// Legend 20% scaled by 0.9
	if got := BonusRate(300, 2.5); math.Abs(got-0.18) > 1e-9 {
		t.Fatalf("BonusRate(300, 2.5) = %v, want 0.18", got)
	}
}
