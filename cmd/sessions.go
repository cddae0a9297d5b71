package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nwestfall/bookforge/internal/config"
	"github.com/nwestfall/bookforge/internal/infrastructure/sqlite"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect or clear the persisted workflow session",
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the persisted session snapshot",
	RunE:  runSessionsShow,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the persisted session snapshot",
	RunE:  runSessionsClear,
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openSessionDB() (*sqlite.DB, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dataDir, err := config.DataDir()
		if err != nil {
			return nil, err
		}
		dbPath = filepath.Join(dataDir, "bookforge.db")
	}
	return sqlite.Open(dbPath)
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	db, err := openSessionDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stored, err := db.SessionStore().Load()
	if err != nil {
		return err
	}
	if stored == nil {
		fmt.Println("No persisted session.")
		return nil
	}

	fmt.Println("Session:", stored.SessionID)
	fmt.Println("Phase:  ", stored.Phase)
	fmt.Println("Started:", stored.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Updated:", stored.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	db, err := openSessionDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.SessionStore().Clear(); err != nil {
		return err
	}
	fmt.Println("Persisted session cleared.")
	return nil
}
