package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agendadrte/core/internal/application/services"
	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/ports"
)

// NewTaskCommand creates the task management command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
		Long:  "Create, list, update, and delete agenda tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			input, err := taskInputFromFlags(cmd)
			if err != nil {
				return err
			}
			if input.Date == "" {
				input.Date = a.agenda.Today()
			}

			paths, _ := cmd.Flags().GetStringArray("attach")
			uploads, err := readUploads(paths)
			if err != nil {
				return err
			}

			task, failures, err := a.agenda.SaveTask(cmd.Context(), input, uploads)
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())

			fmt.Printf("Task created: %s\n", task.ID)
			printAttachmentFailures(failures)
			return nil
		},
	}
	addTaskFlags(addCmd)
	addCmd.Flags().StringArray("attach", nil, "File to attach (repeatable)")
	taskCmd.AddCommand(addCmd)

	editCmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Update an existing task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			existing, err := a.agenda.GetTask(args[0])
			if err != nil {
				return err
			}

			input, err := taskInputFromFlags(cmd)
			if err != nil {
				return err
			}
			input.ID = existing.ID
			if !cmd.Flags().Changed("title") {
				input.Title = existing.Title
			}
			if !cmd.Flags().Changed("date") {
				input.Date = existing.Date
			}
			if !cmd.Flags().Changed("description") {
				input.Description = existing.Description
			}
			if !cmd.Flags().Changed("time") {
				input.Time = existing.Time
			}
			if !cmd.Flags().Changed("location") {
				input.Location = existing.Location
			}
			if !cmd.Flags().Changed("tag") {
				input.Tags = existing.Tags
			}
			if !cmd.Flags().Changed("category") {
				input.Category = existing.Category
			}
			if !cmd.Flags().Changed("priority") {
				input.Priority = existing.Priority
			}

			task, _, err := a.agenda.SaveTask(cmd.Context(), input, nil)
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())

			fmt.Printf("Task updated: %s (version %d)\n", task.ID, task.Version)
			return nil
		},
	}
	addTaskFlags(editCmd)
	taskCmd.AddCommand(editCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			filter := ports.TaskFilter{}
			filter.Date, _ = cmd.Flags().GetString("date")
			if filter.Date != "" && !entities.ValidDate(filter.Date) {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", filter.Date)
			}
			if today, _ := cmd.Flags().GetBool("today"); today {
				filter.Date = a.agenda.Today()
			}
			category, _ := cmd.Flags().GetString("category")
			filter.Category = entities.Category(category)
			status, _ := cmd.Flags().GetString("status")
			filter.Status = entities.Status(status)
			priority, _ := cmd.Flags().GetString("priority")
			filter.Priority = entities.Priority(priority)
			filter.Search, _ = cmd.Flags().GetString("search")

			tasks := a.agenda.ListTasks(filter)
			if len(tasks) == 0 {
				fmt.Println("No tasks found")
				return nil
			}
			for _, t := range tasks {
				clock := t.Time
				if clock == "" {
					clock = "--:--"
				}
				fmt.Printf("%s  %s %s  [%s/%s]  %s  %s\n",
					t.ID, t.Date, clock, t.Priority.Label(), t.Status.Label(), t.Category.Label(), t.Title)
			}
			return nil
		},
	}
	listCmd.Flags().String("date", "", "Only tasks on this date (YYYY-MM-DD)")
	listCmd.Flags().Bool("today", false, "Only today's tasks")
	listCmd.Flags().String("category", "", "Filter by category")
	listCmd.Flags().String("status", "", "Filter by status")
	listCmd.Flags().String("priority", "", "Filter by priority")
	listCmd.Flags().String("search", "", "Search in title, description, and tags")
	taskCmd.AddCommand(listCmd)

	taskCmd.AddCommand(&cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			task, err := a.agenda.GetTask(args[0])
			if err != nil {
				return err
			}
			printTask(task)

			atts, err := a.agenda.ListAttachments(task.ID)
			if err != nil {
				return err
			}
			for _, att := range atts {
				fmt.Printf("  adjunto: %s  %s (%d bytes)\n", att.ID, att.Name, att.SizeBytes)
			}
			return nil
		},
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "advance <task-id>",
		Short: "Rotate the task status one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			task, err := a.agenda.AdvanceStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())
			fmt.Printf("Task %s is now %s\n", task.ID, task.Status.Label())
			return nil
		},
	})

	taskCmd.AddCommand(&cobra.Command{
		Use:   "cancel <task-id>",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			task, err := a.agenda.CancelTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())
			fmt.Printf("Task %s cancelled\n", task.ID)
			return nil
		},
	})

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			confirmed, _ := cmd.Flags().GetBool("yes")
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.agenda.DeleteTask(cmd.Context(), args[0], confirmed); err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())
			fmt.Printf("Task %s deleted\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().Bool("yes", false, "Confirm the deletion")
	taskCmd.AddCommand(deleteCmd)

	return taskCmd
}

func addTaskFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Task title")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("date", "", "Scheduled date (YYYY-MM-DD, default today)")
	cmd.Flags().String("time", "", "Scheduled time (HH:MM)")
	cmd.Flags().String("category", "", "Category (pntf, meeting, training, design, report, system, other)")
	cmd.Flags().String("priority", "", "Priority (low, medium, high, urgent)")
	cmd.Flags().String("location", "", "Location")
	cmd.Flags().StringArray("tag", nil, "Tag (repeatable)")
}

func taskInputFromFlags(cmd *cobra.Command) (ports.TaskInput, error) {
	var input ports.TaskInput
	input.Title, _ = cmd.Flags().GetString("title")
	input.Description, _ = cmd.Flags().GetString("description")
	input.Date, _ = cmd.Flags().GetString("date")
	input.Time, _ = cmd.Flags().GetString("time")
	category, _ := cmd.Flags().GetString("category")
	input.Category = entities.Category(category)
	priority, _ := cmd.Flags().GetString("priority")
	input.Priority = entities.Priority(priority)
	input.Location, _ = cmd.Flags().GetString("location")
	input.Tags, _ = cmd.Flags().GetStringArray("tag")
	if input.Date != "" && !entities.ValidDate(input.Date) {
		return input, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", input.Date)
	}
	if input.Time != "" && !entities.ValidClock(input.Time) {
		return input, fmt.Errorf("invalid --time %q, expected HH:MM", input.Time)
	}
	return input, nil
}

func readUploads(paths []string) ([]ports.FileUpload, error) {
	var uploads []ports.FileUpload
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, ports.FileUpload{
			Name: filepath.Base(path),
			Data: data,
		})
	}
	return uploads, nil
}

func printAttachmentFailures(failures []ports.AttachmentFailure) {
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "attachment %s not stored: %v\n", f.Name, f.Err)
	}
}

func printTask(t *entities.Task) {
	fmt.Printf("ID:          %s\n", t.ID)
	fmt.Printf("Título:      %s\n", t.Title)
	if t.Description != "" {
		fmt.Printf("Descripción: %s\n", t.Description)
	}
	fmt.Printf("Fecha:       %s", t.Date)
	if t.Time != "" {
		fmt.Printf(" %s", t.Time)
	}
	fmt.Println()
	fmt.Printf("Categoría:   %s\n", t.Category.Label())
	fmt.Printf("Prioridad:   %s\n", t.Priority.Label())
	fmt.Printf("Estado:      %s\n", t.Status.Label())
	if t.Location != "" {
		fmt.Printf("Ubicación:   %s\n", t.Location)
	}
	if len(t.Tags) > 0 {
		fmt.Printf("Etiquetas:   %s\n", strings.Join(t.Tags, ", "))
	}
	if t.CompletedAt != nil {
		fmt.Printf("Completado:  %s\n", t.CompletedAt.Format(time.RFC3339))
	}
}

// NewAttachmentCommand creates the attachment management command
func NewAttachmentCommand() *cobra.Command {
	attachCmd := &cobra.Command{
		Use:   "attach",
		Short: "Attachment management commands",
		Long:  "Add, list, download, and remove task attachments",
	}

	attachCmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <file>...",
		Short: "Attach files to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			uploads, err := readUploads(args[1:])
			if err != nil {
				return err
			}
			stored, failures, err := a.agenda.AttachFiles(cmd.Context(), args[0], uploads)
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())

			for _, att := range stored {
				fmt.Printf("Stored %s as %s\n", att.Name, att.ID)
			}
			printAttachmentFailures(failures)
			return nil
		},
	})

	attachCmd.AddCommand(&cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			atts, err := a.agenda.ListAttachments(args[0])
			if err != nil {
				return err
			}
			if len(atts) == 0 {
				fmt.Println("No attachments")
				return nil
			}
			for _, att := range atts {
				fmt.Printf("%s  %s  %s  %d bytes\n", att.ID, att.Name, att.MimeType, att.SizeBytes)
			}
			return nil
		},
	})

	getCmd := &cobra.Command{
		Use:   "get <attachment-id>",
		Short: "Download an attachment payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			att, err := a.agenda.GetAttachment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = att.Name
			}
			if err := os.WriteFile(out, att.Payload, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", out, att.SizeBytes)
			return nil
		},
	}
	getCmd.Flags().String("out", "", "Output path (default: original file name)")
	attachCmd.AddCommand(getCmd)

	attachCmd.AddCommand(&cobra.Command{
		Use:   "remove <task-id> <attachment-id>",
		Short: "Remove one attachment from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.agenda.RemoveAttachment(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())
			fmt.Printf("Attachment %s removed\n", args[1])
			return nil
		},
	})

	return attachCmd
}

// NewTemplateCommand creates the template management command
func NewTemplateCommand() *cobra.Command {
	templateCmd := &cobra.Command{
		Use:   "template",
		Short: "Task template commands",
		Long:  "Save, list, apply, and delete reusable task templates",
	}

	saveCmd := &cobra.Command{
		Use:   "save",
		Short: "Save a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var input ports.TemplateInput
			input.Name, _ = cmd.Flags().GetString("name")
			category, _ := cmd.Flags().GetString("category")
			input.Category = entities.Category(category)
			priority, _ := cmd.Flags().GetString("priority")
			input.Priority = entities.Priority(priority)
			input.Description, _ = cmd.Flags().GetString("description")
			input.Time, _ = cmd.Flags().GetString("time")
			if input.Time != "" && !entities.ValidClock(input.Time) {
				return fmt.Errorf("invalid --time %q, expected HH:MM", input.Time)
			}
			input.Location, _ = cmd.Flags().GetString("location")
			input.Tags, _ = cmd.Flags().GetStringArray("tag")

			tpl, err := a.agenda.SaveTemplate(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Printf("Template saved: %s\n", tpl.ID)
			return nil
		},
	}
	saveCmd.Flags().String("name", "", "Template name")
	saveCmd.Flags().String("category", "", "Category")
	saveCmd.Flags().String("priority", "", "Priority")
	saveCmd.Flags().String("description", "", "Description")
	saveCmd.Flags().String("time", "", "Time of day (HH:MM)")
	saveCmd.Flags().String("location", "", "Location")
	saveCmd.Flags().StringArray("tag", nil, "Tag (repeatable)")
	templateCmd.AddCommand(saveCmd)

	templateCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			tpls := a.agenda.ListTemplates()
			if len(tpls) == 0 {
				fmt.Println("No templates")
				return nil
			}
			for _, tpl := range tpls {
				fmt.Printf("%s  %s  [%s/%s]  used %d times\n",
					tpl.ID, tpl.Name, tpl.Category.Label(), tpl.Priority.Label(), tpl.UseCount)
			}
			return nil
		},
	})

	applyCmd := &cobra.Command{
		Use:   "apply <template-id>",
		Short: "Create a task from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = a.agenda.Today()
			} else if !entities.ValidDate(date) {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
			}
			task, err := a.agenda.ApplyTemplate(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			a.backup.TriggerAfterSave(cmd.Context())
			fmt.Printf("Task created from template: %s\n", task.ID)
			return nil
		},
	}
	applyCmd.Flags().String("date", "", "Date for the new task (default today)")
	templateCmd.AddCommand(applyCmd)

	templateCmd.AddCommand(&cobra.Command{
		Use:   "delete <template-id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.agenda.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Template %s deleted\n", args[0])
			return nil
		},
	})

	return templateCmd
}

// NewExportCommand creates the report export command
func NewExportCommand() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export <csv|xlsx|pdf|docx>",
		Short: "Export the agenda as a report file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			filter := ports.TaskFilter{}
			filter.Date, _ = cmd.Flags().GetString("date")
			if filter.Date != "" && !entities.ValidDate(filter.Date) {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", filter.Date)
			}
			category, _ := cmd.Flags().GetString("category")
			filter.Category = entities.Category(category)
			status, _ := cmd.Flags().GetString("status")
			filter.Status = entities.Status(status)

			path, err := a.export.ExportToFile(services.ExportFormat(args[0]), filter)
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", path)
			return nil
		},
	}
	exportCmd.Flags().String("date", "", "Only tasks on this date")
	exportCmd.Flags().String("category", "", "Filter by category")
	exportCmd.Flags().String("status", "", "Filter by status")
	return exportCmd
}

// NewBackupCommand creates the backup snapshot command
func NewBackupCommand() *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup snapshot commands",
		Long:  "Create, list, and restore agenda snapshots",
	}

	backupCmd.AddCommand(&cobra.Command{
		Use:   "now",
		Short: "Take a snapshot immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.backup.RunNow(cmd.Context(), "manual"); err != nil {
				return err
			}
			fmt.Println("Snapshot created")
			return nil
		},
	})

	backupCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			snaps, err := a.agenda.ListSnapshots(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Println("No snapshots")
				return nil
			}
			for _, snap := range snaps {
				fmt.Printf("%s  %-10s  %d tasks, %d templates\n",
					snap.Timestamp.Format(time.RFC3339Nano), snap.Reason, len(snap.Tasks), len(snap.Templates))
			}
			return nil
		},
	})

	backupCmd.AddCommand(&cobra.Command{
		Use:   "restore <timestamp>",
		Short: "Restore agenda state from a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := time.Parse(time.RFC3339Nano, args[0])
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: %w", args[0], err)
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.agenda.RestoreFromSnapshot(cmd.Context(), ts); err != nil {
				return err
			}
			fmt.Println("State restored")
			return nil
		},
	})

	return backupCmd
}

// NewCalendarCommand creates the calendar view command
func NewCalendarCommand() *cobra.Command {
	calCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the month calendar with task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			var month *services.CalendarMonth
			if arg, _ := cmd.Flags().GetString("month"); arg != "" {
				at, err := time.Parse("2006-01", arg)
				if err != nil {
					return fmt.Errorf("invalid month %q: %w", arg, err)
				}
				month = a.calendar.Month(at.Year(), at.Month())
			} else {
				month = a.calendar.CurrentMonth()
			}

			printMonth(month)
			return nil
		},
	}
	calCmd.Flags().String("month", "", "Month to show (YYYY-MM, default current)")
	return calCmd
}

func printMonth(m *services.CalendarMonth) {
	fmt.Printf("%s\n\n", m.Title)
	for _, name := range services.Weekdays {
		fmt.Printf("%5s ", name)
	}
	fmt.Println()
	for _, week := range m.Weeks {
		for _, day := range week {
			switch {
			case day.Day == 0:
				fmt.Printf("%5s ", "")
			case day.TaskCount > 0:
				fmt.Printf("%3d*%d ", day.Day, day.TaskCount)
			default:
				fmt.Printf("%5d ", day.Day)
			}
		}
		fmt.Println()
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
			return nil
		},
	}
}
