package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var (
	migratePath string
	migrateDown int
)

func migrateDSN() string {
	if dsn := os.Getenv("MYSQL_MIGRATE_DSN"); dsn != "" {
		return dsn
	}
	user := os.Getenv("MYSQL_USER")
	pass := os.Getenv("MYSQL_PASS")
	host := os.Getenv("MYSQL_HOST")
	port := os.Getenv("MYSQL_PORT")
	db := os.Getenv("MYSQL_DB")
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true", user, pass, host, port, db)
}

var migrateCmd = &cobra.Command{
	Use:   "db:migrate",
	Short: "Apply schema migrations (use --down N to roll back N steps)",
	Run: func(cmd *cobra.Command, args []string) {
		m, err := migrate.New("file://"+migratePath, migrateDSN())
		if err != nil {
			fmt.Printf("Migration setup failed: %v\n", err)
			os.Exit(1)
		}
		defer m.Close()

		if migrateDown > 0 {
			err = m.Steps(-migrateDown)
		} else {
			err = m.Up()
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("Schema already up to date.")
			return
		}
		if err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}

		version, dirty, verr := m.Version()
		if verr != nil {
			fmt.Println("Migrations applied.")
			return
		}
		fmt.Printf("Migrations applied. Schema at version %d (dirty=%v).\n", version, dirty)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migratePath, "path", "migrations", "Directory holding the .sql migration files")
	migrateCmd.Flags().IntVar(&migrateDown, "down", 0, "Roll back this many steps instead of migrating up")
	rootCmd.AddCommand(migrateCmd)
}
