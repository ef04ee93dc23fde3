package model

import (
	"errors"
	"testing"

	"github.com/sakif/taskboard/internal/apperror"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Priority
		wantErr bool
	}{
		{"low", "low", PriorityLow, false},
		{"medium", "medium", PriorityMedium, false},
		{"high", "high", PriorityHigh, false},
		{"unknown value", "urgent", "", true},
		{"empty string", "", "", true},
		{"wrong case", "High", "", true},
		{"whitespace", " high", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePriority(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePriority(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				// Rejections carry the validation tag so the HTTP layer maps them to 400
				if !errors.Is(err, apperror.ErrValidation) {
					t.Errorf("ParsePriority(%q) error should wrap ErrValidation, got %v", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParsePriority(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{"pending", "pending", StatusPending, false},
		{"in_progress", "in_progress", StatusInProgress, false},
		{"completed", "completed", StatusCompleted, false},
		{"hyphen instead of underscore", "in-progress", "", true},
		{"unknown value", "done", "", true},
		{"empty string", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Errorf("ParseStatus(%q) error should wrap ErrValidation, got %v", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
