package config_test

import (
	"slices"
	"testing"

	"github.com/tzrikka/conduct/pkg/config"
)

func TestChannelIDs(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{
			name:   "empty",
			values: []string{},
			want:   []string{},
		},
		{
			name:   "single",
			values: []string{"C07FL3G62LF"},
			want:   []string{"C07FL3G62LF"},
		},
		{
			name:   "comma_separated",
			values: []string{"C2, c1", "C3"},
			want:   []string{"C1", "C2", "C3"},
		},
		{
			name:   "duplicates_and_blanks",
			values: []string{"C1", " ", "c1,,C2"},
			want:   []string{"C1", "C2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := config.ChannelIDs(tt.values); !slices.Equal(got, tt.want) {
				t.Errorf("ChannelIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClockTime(t *testing.T) {
	tests := []struct {
		name       string
		s          string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{
			name:     "hour_only",
			s:        "9",
			wantHour: 9,
		},
		{
			name:       "24h",
			s:          "21:30",
			wantHour:   21,
			wantMinute: 30,
		},
		{
			name:     "kitchen",
			s:        "9:00AM",
			wantHour: 9,
		},
		{
			name:       "lowercase_pm_with_space",
			s:          "1:15 pm",
			wantHour:   13,
			wantMinute: 15,
		},
		{
			name:     "single_letter",
			s:        "12a",
			wantHour: 0,
		},
		{
			name:    "out_of_range",
			s:       "25:00",
			wantErr: true,
		},
		{
			name:    "garbage",
			s:       "noon",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m, err := config.ClockTime(tt.s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClockTime() error = %v, wantErr %v", err, tt.wantErr)
			}
			if h != tt.wantHour || m != tt.wantMinute {
				t.Errorf("ClockTime() = %d:%02d, want %d:%02d", h, m, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	if got := config.Location("Europe/Paris").String(); got != "Europe/Paris" {
		t.Errorf("Location() = %q, want %q", got, "Europe/Paris")
	}
	if got := config.Location("Not/AZone").String(); got != config.DefaultTimezone {
		t.Errorf("Location() fallback = %q, want %q", got, config.DefaultTimezone)
	}
}
