package commands

import (
	"testing"

	"github.com/spf13/cobra"
)

func taskFlagCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "add"}
	addTaskFlags(cmd)
	for name, value := range flags {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set flag %s: %v", name, err)
		}
	}
	return cmd
}

func TestTaskInputFromFlags(t *testing.T) {
	cmd := taskFlagCmd(t, map[string]string{
		"title":    "Revisión del PNTF",
		"date":     "2026-03-10",
		"time":     "09:30",
		"category": "meeting",
	})

	input, err := taskInputFromFlags(cmd)
	if err != nil {
		t.Fatalf("task input: %v", err)
	}
	if input.Title != "Revisión del PNTF" || input.Date != "2026-03-10" || input.Time != "09:30" {
		t.Fatalf("unexpected input: %+v", input)
	}
}

func TestTaskInputFromFlagsRejectsBadDate(t *testing.T) {
	cmd := taskFlagCmd(t, map[string]string{
		"title": "fecha rota",
		"date":  "10/03/2026",
	})
	if _, err := taskInputFromFlags(cmd); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestTaskInputFromFlagsRejectsBadClock(t *testing.T) {
	cmd := taskFlagCmd(t, map[string]string{
		"title": "hora rota",
		"date":  "2026-03-10",
		"time":  "25:99",
	})
	if _, err := taskInputFromFlags(cmd); err == nil {
		t.Fatal("expected error for malformed time")
	}
}
