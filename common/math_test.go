package common

import "testing"

func TestCosineEase(t *testing.T) {
	tests := []struct {
		name      string
		remaining float64
		duration  float64
		want      float64
	}{
		{"none_left", 0, 0.4, 0},
		{"half", 0.2, 0.4, 1},
		{"full", 0.4, 0.4, 1},
		{"zero_duration", 1, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CosineEase(tc.remaining, tc.duration)
			if !ApproxEqual(got, tc.want, 1e-9) {
				t.Fatalf("CosineEase(%v, %v) = %v, want %v", tc.remaining, tc.duration, got, tc.want)
			}
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    [4]uint8
		wantErr bool
	}{
		{"#ff0000", [4]uint8{255, 0, 0, 255}, false},
		{"#00ff0080", [4]uint8{0, 255, 0, 128}, false},
		{"seagreen", [4]uint8{46, 139, 87, 255}, false},
		{"", [4]uint8{255, 255, 255, 255}, false},
		{"#123", [4]uint8{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			c, err := ParseColor(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tc.in, err)
			}
			got := [4]uint8{c.R, c.G, c.B, c.A}
			if got != tc.want {
				t.Fatalf("ParseColor(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLerpColor(t *testing.T) {
	if got := LerpColor(White, Red, 1); got != Red {
		t.Fatalf("LerpColor at 1 = %v, want red", got)
	}
	if got := LerpColor(White, Red, 0); got != White {
		t.Fatalf("LerpColor at 0 = %v, want white", got)
	}
}
