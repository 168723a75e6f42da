package parse

import "testing"

func TestAddress(t *testing.T) {
	tests := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{"POCSAG1200: Address: 555123 Function: 0 Alpha: Brand", "555123", true},
		{"Address:42", "42", true},
		{"Address:   7", "7", true},
		{"no address here", "", false},
		{"Address: abc", "", false},
	}
	for _, tt := range tests {
		got, ok := Address(tt.line)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("Address(%q) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCoordinates(t *testing.T) {
	tests := []struct {
		line   string
		wantX  int
		wantY  int
		wantOK bool
	}{
		{"Alpha: Brand X=6580994 Y=1628294 Storgatan 1", 6580994, 1628294, true},
		{"X=1   Y=2", 1, 2, true},
		{"no coordinates", 0, 0, false},
		{"X=6580994 only", 0, 0, false},
		{"X=99999999999999999999999999 Y=1628294", 0, 0, false},
	}
	for _, tt := range tests {
		x, y, ok := Coordinates(tt.line)
		if ok != tt.wantOK || x != tt.wantX || y != tt.wantY {
			t.Errorf("Coordinates(%q) = (%d, %d, %v), want (%d, %d, %v)",
				tt.line, x, y, ok, tt.wantX, tt.wantY, tt.wantOK)
		}
	}
}
