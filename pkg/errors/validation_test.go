package errors

import (
	"math"
	"testing"
)

func TestValidateAlpha(t *testing.T) {
	tests := []struct {
		input   float64
		wantErr bool
	}{
		{0.05, false},
		{0.5, false},
		{0.999, false},
		{0, true},
		{1, true},
		{-0.1, true},
		{1.5, true},
		{math.NaN(), true},
	}

	for _, tt := range tests {
		err := ValidateAlpha(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateAlpha(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeInvalidConfig) {
			t.Errorf("ValidateAlpha(%v) returned wrong error code: %v", tt.input, err)
		}
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("trials", 1); err != nil {
		t.Errorf("ValidatePositive(1) = %v, want nil", err)
	}
	if err := ValidatePositive("trials", 0); err == nil {
		t.Error("ValidatePositive(0) = nil, want error")
	}
	if err := ValidateNonNegative("population", 0); err != nil {
		t.Errorf("ValidateNonNegative(0) = %v, want nil", err)
	}
	if err := ValidateNonNegative("population", -1); err == nil {
		t.Error("ValidateNonNegative(-1) = nil, want error")
	}
}

func TestValidateSeats(t *testing.T) {
	tests := []struct {
		name       string
		seats      int
		candidates int
		wantErr    bool
	}{
		{"single winner", 1, 3, false},
		{"all seats", 3, 3, false},
		{"zero seats", 0, 3, true},
		{"too many seats", 4, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeats(tt.seats, tt.candidates)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSeats(%d, %d) error = %v, wantErr %v", tt.seats, tt.candidates, err, tt.wantErr)
			}
		})
	}
}
