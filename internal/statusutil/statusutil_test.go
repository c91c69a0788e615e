package statusutil

import (
	"testing"

	"mailtasks-cli/internal/model"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    model.Status
		wantErr bool
	}{
		{"pending", model.StatusPending, false},
		{"PENDING", model.StatusPending, false},
		{" viewed ", model.StatusViewed, false},
		{"done", model.StatusCompleted, false},
		{"COMPLETED", model.StatusCompleted, false},
		{"archived", model.StatusArchived, false},
		{"", "", true},
		{"later", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeStatus(tc.in)
		if tc.wantErr && err == nil {
			t.Fatalf("NormalizeStatus(%q): expected error", tc.in)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("NormalizeStatus(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeStatus(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeUrgency(t *testing.T) {
	cases := []struct {
		in      string
		want    model.Urgency
		wantErr bool
	}{
		{"URGENTE", model.UrgencyUrgent, false},
		{"urgent", model.UrgencyUrgent, false},
		{"Mediano", model.UrgencyMedium, false},
		{"routine", model.UrgencyRoutine, false},
		{"", "", true},
		{"critical", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeUrgency(tc.in)
		if tc.wantErr != (err != nil) {
			t.Fatalf("NormalizeUrgency(%q): err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("NormalizeUrgency(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCanTransition_Monotonic(t *testing.T) {
	all := []model.Status{model.StatusPending, model.StatusViewed, model.StatusCompleted, model.StatusArchived}
	for _, from := range all {
		for _, to := range all {
			got := CanTransition(from, to)
			if to != model.StatusArchived && from != model.StatusArchived && got && Order(to) < Order(from) {
				t.Fatalf("CanTransition(%s -> %s) allowed a backward move", from, to)
			}
			if to == model.StatusArchived && got && IsTerminal(from) {
				t.Fatalf("CanTransition(%s -> ARCHIVED) allowed from a terminal status", from)
			}
			if from == model.StatusArchived && got {
				t.Fatalf("CanTransition(ARCHIVED -> %s) should be rejected", to)
			}
		}
	}
}

func TestCanTransition_Cases(t *testing.T) {
	cases := []struct {
		from, to model.Status
		want     bool
	}{
		{model.StatusPending, model.StatusViewed, true},
		{model.StatusPending, model.StatusCompleted, true},
		{model.StatusViewed, model.StatusCompleted, true},
		{model.StatusViewed, model.StatusViewed, true},
		{model.StatusCompleted, model.StatusCompleted, true},
		{model.StatusPending, model.StatusPending, false},
		{model.StatusCompleted, model.StatusPending, false},
		{model.StatusCompleted, model.StatusViewed, false},
		{model.StatusViewed, model.StatusArchived, true},
		{model.StatusCompleted, model.StatusArchived, false},
		{model.StatusArchived, model.StatusArchived, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s -> %s): expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(model.StatusPending) || IsTerminal(model.StatusViewed) {
		t.Fatalf("non-terminal statuses reported terminal")
	}
	if !IsTerminal(model.StatusCompleted) || !IsTerminal(model.StatusArchived) {
		t.Fatalf("terminal statuses reported non-terminal")
	}
}
