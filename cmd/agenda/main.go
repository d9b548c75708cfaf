package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/agendadrte/core/cmd/agenda/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agenda",
		Short: "Agenda Digital DRTE",
		Long:  `Agenda Digital DRTE manages the department's task agenda: tasks with attachments, reusable templates, backup snapshots, and report exports.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewTaskCommand())
	rootCmd.AddCommand(commands.NewAttachmentCommand())
	rootCmd.AddCommand(commands.NewTemplateCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewBackupCommand())
	rootCmd.AddCommand(commands.NewCalendarCommand())
	rootCmd.AddCommand(commands.NewDaemonCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
