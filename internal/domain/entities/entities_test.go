package entities

import "testing"

func TestTaskAdvanceRotation(t *testing.T) {
	task := &Task{Status: StatusPending}

	if err := task.Advance(); err != nil {
		t.Fatalf("advance from pending: %v", err)
	}
	if task.Status != StatusInProgress {
		t.Fatalf("got %s, want %s", task.Status, StatusInProgress)
	}
	if task.CompletedAt != nil {
		t.Fatal("CompletedAt set before completion")
	}

	if err := task.Advance(); err != nil {
		t.Fatalf("advance from in-progress: %v", err)
	}
	if task.Status != StatusCompleted {
		t.Fatalf("got %s, want %s", task.Status, StatusCompleted)
	}
	if task.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped on completion")
	}

	if err := task.Advance(); err != nil {
		t.Fatalf("advance from completed: %v", err)
	}
	if task.Status != StatusPending {
		t.Fatalf("got %s, want %s", task.Status, StatusPending)
	}
	if task.CompletedAt != nil {
		t.Fatal("CompletedAt not cleared when re-entering pending")
	}
}

func TestTaskAdvanceCancelledIsTerminal(t *testing.T) {
	task := &Task{Status: StatusCancelled}
	if err := task.Advance(); err != ErrInvalidStatus {
		t.Fatalf("got %v, want ErrInvalidStatus", err)
	}
	if task.Status != StatusCancelled {
		t.Fatalf("cancelled task changed status to %s", task.Status)
	}
}

func TestTaskCancel(t *testing.T) {
	now := NowAtOffset(-6)
	task := &Task{Status: StatusCompleted, CompletedAt: &now}
	if err := task.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if task.Status != StatusCancelled {
		t.Fatalf("got %s, want %s", task.Status, StatusCancelled)
	}
	if task.CompletedAt != nil {
		t.Fatal("CompletedAt kept after cancel")
	}
	if err := task.Cancel(); err != ErrInvalidStatus {
		t.Fatalf("second cancel: got %v, want ErrInvalidStatus", err)
	}
}

func TestPriorityRankOrdering(t *testing.T) {
	if !(PriorityUrgent.Rank() < PriorityHigh.Rank() &&
		PriorityHigh.Rank() < PriorityMedium.Rank() &&
		PriorityMedium.Rank() < PriorityLow.Rank()) {
		t.Fatal("priority ranks out of order")
	}
}

func TestMatchesSearch(t *testing.T) {
	task := &Task{
		Title:       "Revisión del informe anual",
		Description: "Preparar documentos",
		Tags:        []string{"urgente", "MEP"},
	}

	cases := []struct {
		term string
		want bool
	}{
		{"", true},
		{"revisión", true},
		{"REVISIÓN", true},
		{"documentos", true},
		{"mep", true},
		{"presupuesto", false},
	}
	for _, c := range cases {
		if got := task.MatchesSearch(c.term); got != c.want {
			t.Errorf("MatchesSearch(%q) = %v, want %v", c.term, got, c.want)
		}
	}
}

func TestTaskCloneIsDeep(t *testing.T) {
	task := &Task{
		ID:            "t1",
		AttachmentIDs: []string{"a1"},
		Tags:          []string{"x"},
	}
	clone := task.Clone()
	clone.AttachmentIDs[0] = "changed"
	clone.Tags[0] = "changed"

	if task.AttachmentIDs[0] != "a1" || task.Tags[0] != "x" {
		t.Fatal("clone shares slices with the original")
	}
}

func TestSpanishLabels(t *testing.T) {
	if got := CategoryMeeting.Label(); got != "Reunión" {
		t.Errorf("category label: got %q", got)
	}
	if got := PriorityUrgent.Label(); got != "Urgente" {
		t.Errorf("priority label: got %q", got)
	}
	if got := StatusInProgress.Label(); got != "En Progreso" {
		t.Errorf("status label: got %q", got)
	}
}

func TestValidDateAndClock(t *testing.T) {
	if !ValidDate("2026-02-28") || ValidDate("2026-02-30") || ValidDate("28/02/2026") {
		t.Fatal("date validation wrong")
	}
	if !ValidClock("09:30") || ValidClock("24:00") || ValidClock("9h30") {
		t.Fatal("clock validation wrong")
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DefaultCategory != CategoryPNTF || s.UTCOffsetHours != -6 || !s.AutoBackup {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}
