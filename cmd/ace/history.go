package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apeiro/ace/internal/history"
	"github.com/apeiro/ace/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived sessions",
	Long: `History lists every archived session with its aggregate stats: case
count, completed count, and mean extraction duration. Sessions are listed
oldest first.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("archive-dir", ".ace", "session archive directory")
	historyCmd.Flags().Bool("json", false, "emit the full archive as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	archiveDir, _ := cmd.Flags().GetString("archive-dir")
	store, err := history.NewStore(types.HistoryConfig{Path: archiveDir})
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.LoadAll(cmd.Context())
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No archived sessions.")
		return nil
	}
	fmt.Printf("%-12s %-20s %7s %10s %14s\n", "SESSION", "WHEN", "CASES", "COMPLETED", "AVG EXTRACT")
	for _, s := range sessions {
		fmt.Printf("%-12s %-20s %7d %10d %14s\n",
			s.SessionID,
			s.Timestamp.Local().Format("2006-01-02 15:04:05"),
			s.Stats.Total,
			s.Stats.Completed,
			s.Stats.AvgExtraction.Round(time.Millisecond))
	}
	return nil
}
