package pathutil

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		segment string
		wantID  int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"9223372036854775807", 9223372036854775807, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"12a", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			id, err := ParseID(tt.segment)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Errorf("ParseID(%q) error = %v, want ErrInvalidID", tt.segment, err)
				}
				return
			}
			if err != nil || id != tt.wantID {
				t.Errorf("ParseID(%q) = %d, %v; want %d", tt.segment, id, err, tt.wantID)
			}
		})
	}
}
