package model

import (
	"testing"
	"time"
)

func TestParseTimeOfDay_Valid(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
	}{
		{"09:00", 9, 0},
		{"17:30", 17, 30},
		{"00:00", 0, 0},
		{"23:59", 23, 59},
	}

	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.input)
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) returned error: %v", tt.input, err)
			continue
		}
		if got.Hour != tt.wantHour || got.Minute != tt.wantMinute {
			t.Errorf("ParseTimeOfDay(%q) = %02d:%02d, want %02d:%02d",
				tt.input, got.Hour, got.Minute, tt.wantHour, tt.wantMinute)
		}
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, input := range []string{"", "9時", "25:00", "09:60", "0900"} {
		if _, err := ParseTimeOfDay(input); err == nil {
			t.Errorf("ParseTimeOfDay(%q) should return error", input)
		}
	}
}

func TestTimeOfDay_BeforeAfter(t *testing.T) {
	nine := TimeOfDay{Hour: 9, Minute: 0}
	nineThirty := TimeOfDay{Hour: 9, Minute: 30}

	if !nine.Before(nineThirty) {
		t.Error("09:00 should be before 09:30")
	}
	if nineThirty.Before(nine) {
		t.Error("09:30 should not be before 09:00")
	}
	if !nineThirty.After(nine) {
		t.Error("09:30 should be after 09:00")
	}

	// 同時刻はBeforeもAfterもfalse
	if nine.Before(nine) || nine.After(nine) {
		t.Error("equal times should be neither before nor after")
	}
}

func TestTimeOfDay_On(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}

	cutoff := TimeOfDay{Hour: 19, Minute: 0}
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)

	got := cutoff.On(date, loc)
	want := time.Date(2026, 1, 15, 19, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}
}

func TestTimeOfDay_String(t *testing.T) {
	got := TimeOfDay{Hour: 9, Minute: 5}.String()
	if got != "09:05" {
		t.Errorf("String = %q, want 09:05", got)
	}
}

func TestFromTime(t *testing.T) {
	ts := time.Date(2026, 1, 15, 17, 45, 30, 0, time.UTC)
	got := FromTime(ts)
	if got.Hour != 17 || got.Minute != 45 {
		t.Errorf("FromTime = %02d:%02d, want 17:45", got.Hour, got.Minute)
	}
}
