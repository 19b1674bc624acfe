package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"steamreviews/pkg/checkpoint"
	"steamreviews/pkg/config"
	"steamreviews/pkg/ui"
)

var forceClear bool

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or remove the resume checkpoint",
	Long: `Inspect or remove the checkpoint a run resumes from.

The checkpoint is written after every completed page and holds the next
cursor, the page index and the per-day counts and tallies collected so far.`,
}

// checkpointShowCmd represents the checkpoint show command
var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored checkpoint",
	Run:   runCheckpointShow,
}

// checkpointClearCmd represents the checkpoint clear command
var checkpointClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored checkpoint",
	Long: `Delete the stored checkpoint so the next run starts from the newest review.

A copy is kept next to it with a .backup suffix.`,
	Run: runCheckpointClear,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointClearCmd)

	checkpointCmd.PersistentFlags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path")
	checkpointClearCmd.Flags().BoolVarP(&forceClear, "yes", "y", false, "do not ask for confirmation")
}

func checkpointManager(cmd *cobra.Command) *checkpoint.Manager {
	flags := globalFlags(cmd)
	if cmd.Flags().Changed("checkpoint") {
		flags["checkpoint"] = checkpointPath
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	manager, err := checkpoint.NewManager(cfg.Checkpoint.Path)
	if err != nil {
		ui.PrintError("Failed to open checkpoint", err.Error())
		os.Exit(1)
	}
	return manager
}

func runCheckpointShow(cmd *cobra.Command, args []string) {
	manager := checkpointManager(cmd)

	info, err := manager.GetCheckpointInfo()
	if err != nil {
		ui.PrintError("Failed to read checkpoint", err.Error())
		fmt.Println("\nTo start over, run:")
		fmt.Println("  steamreviews checkpoint clear")
		os.Exit(1)
	}
	if info == nil {
		ui.PrintInfo("No checkpoint", manager.Path())
		return
	}

	ui.PrintHighlight("Checkpoint")
	fmt.Println()
	fmt.Printf("  Path: %s\n", info.Path)
	fmt.Printf("  Next cursor: %s\n", info.Cursor)
	fmt.Printf("  Page index: %d\n", info.CurrentPage)
	fmt.Printf("  Days: %d\n", info.Days)
	fmt.Printf("  Reviews admitted: %d\n", info.Admitted)
	if !info.UpdatedAt.IsZero() {
		fmt.Printf("  Updated: %s\n", info.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if !info.HasTallies {
		fmt.Println()
		ui.PrintWarning("Checkpoint has no vote tallies", "days collected before it was written will be reported without votes")
	}
}

func runCheckpointClear(cmd *cobra.Command, args []string) {
	manager := checkpointManager(cmd)

	if !manager.Exists() {
		ui.PrintInfo("No checkpoint", manager.Path())
		return
	}

	if !forceClear {
		fmt.Printf("Delete checkpoint %s? (y/N): ", manager.Path())
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	backup, err := manager.BackupCheckpoint()
	if err != nil {
		ui.PrintWarning("Failed to back up checkpoint", err)
	}

	if err := manager.Delete(); err != nil {
		ui.PrintError("Failed to delete checkpoint", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Checkpoint deleted: " + manager.Path())
	if backup != "" {
		ui.PrintInfo("Backup", backup)
	}
}
