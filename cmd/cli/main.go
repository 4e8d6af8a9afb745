package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"excelytics/adapters/excel"
	"excelytics/adapters/sqldb"
	"excelytics/domain/chart"
	"excelytics/domain/core"
	"excelytics/internal/auth"
	"excelytics/internal/logging"
	"excelytics/internal/migration"
	"excelytics/internal/upload"
	"excelytics/models"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()
	logging.Init(logging.Config{Level: envOr("LOG_LEVEL", "warn"), Format: "console"})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "excelytics",
		Short:         "Spreadsheet normalization, charting and administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		newNormalizeCmd(),
		newChartCmd(),
		newMigrateCmd(),
		newCreateAdminCmd(),
	)
	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func readSpreadsheet(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, maxBytes)
	}
	return os.ReadFile(path)
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newNormalizeCmd() *cobra.Command {
	var (
		pretty   bool
		head     int
		maxBytes int64
	)
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Print the first sheet of a spreadsheet as JSON",
		Long: `Read an xlsx, xls or csv file and print {"columns":[...],"rows":[...]}.

Example: excelytics normalize staff.xlsx --pretty --head 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSpreadsheet(args[0], maxBytes)
			if err != nil {
				return err
			}
			t, err := excel.Normalize(data)
			if err != nil {
				return err
			}
			if head > 0 {
				t = t.Head(head)
			}
			return writeJSON(cmd.OutOrStdout(), t, pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	cmd.Flags().IntVar(&head, "head", 0, "Only print the first N rows")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", upload.DefaultMaxBytes, "Refuse files larger than this")
	return cmd
}

func newChartCmd() *cobra.Command {
	var (
		kind, x, y, z string
		pretty        bool
	)
	cmd := &cobra.Command{
		Use:   "chart FILE",
		Short: "Project a spreadsheet onto a chart and print the series as JSON",
		Long: `Example: excelytics chart staff.csv --kind bar --x dept --y score

Kinds: ` + kindList(),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := chart.ParseKind(kind)
			if err != nil {
				return err
			}
			data, err := readSpreadsheet(args[0], upload.DefaultMaxBytes)
			if err != nil {
				return err
			}
			t, err := excel.Normalize(data)
			if err != nil {
				return err
			}
			proj, err := chart.Project(t, chart.Request{Kind: k, X: x, Y: y, Z: z})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), proj, pretty)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(chart.KindBar), "Chart kind")
	cmd.Flags().StringVar(&x, "x", "", "X axis column")
	cmd.Flags().StringVar(&y, "y", "", "Y axis column")
	cmd.Flags().StringVar(&z, "z", "", "Z axis column (scatter3d)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the output")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func kindList() string {
	names := make([]string, len(chart.Kinds))
	for i, k := range chart.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

type dbFlags struct {
	driver string
	dsn    string
}

func (f *dbFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.driver, "driver", envOr("DATABASE_DRIVER", "postgres"), "Database driver (postgres or sqlite3)")
	cmd.Flags().StringVar(&f.dsn, "database-url", os.Getenv("DATABASE_URL"), "Database connection string")
}

func newMigrateCmd() *cobra.Command {
	var db dbFlags
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			conn, err := sqldb.Open(ctx, db.driver, db.dsn)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (version %s)\n", migration.NewRunner().Version())
			return nil
		},
	}
	db.register(cmd)
	return cmd
}

func newCreateAdminCmd() *cobra.Command {
	var (
		db                    dbFlags
		email, name, password string
	)
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		Long:  `Example: excelytics create-admin --email root@example.com --password "$ADMIN_PASSWORD"`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			conn, err := sqldb.Open(ctx, db.driver, db.dsn)
			if err != nil {
				return err
			}
			defer conn.Close()

			user := &models.User{
				ID:           core.NewID(),
				Email:        models.NormalizeEmail(email),
				Name:         name,
				PasswordHash: hash,
				Role:         models.RoleAdmin,
				IsActive:     true,
				CreatedAt:    time.Now().UTC(),
			}
			if err := sqldb.NewUserRepository(conn).CreateUser(ctx, user); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	db.register(cmd)
	cmd.Flags().StringVar(&email, "email", os.Getenv("ADMIN_EMAIL"), "Admin email")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	cmd.Flags().StringVar(&password, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
