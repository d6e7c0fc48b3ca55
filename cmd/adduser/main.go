package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"life-tracker/internal/apperr"
	"life-tracker/internal/auth"
	"life-tracker/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultDBPath = "lifetracker.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	username string
	password string
	dbPath   string
	driver   string
}

func newRootCmd(stdin io.Reader) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "adduser --user <username> [--password <password>] [--db <path>]",
		Short: "Create a life tracker account",
		Long: `Create an account directly in the database, bypassing /api/register.

The password is prompted for when --password is omitted. DB_PATH is used
when --db is not given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.username) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), cmd.UsageString())
				return errors.New("missing required flags: user")
			}
			if path := os.Getenv("DB_PATH"); path != "" && !cmd.Flags().Changed("db") {
				opts.dbPath = path
			}
			return addUser(cmd.Context(), opts, stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.username, "user", "u", "", "Username")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "Password (optional, will prompt if omitted)")
	cmd.Flags().StringVar(&opts.dbPath, "db", defaultDBPath, "Path to database file, or DSN for postgres")
	cmd.Flags().StringVar(&opts.driver, "driver", storage.DriverSQLite, "Database driver (sqlite or postgres)")

	return cmd
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdin)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(context.Background())
}

func addUser(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	username := strings.TrimSpace(opts.username)

	password := opts.password
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return errors.New("password cannot be empty")
	}
	username, err := auth.ValidateCredentials(username, password)
	if err != nil {
		return err
	}

	db, err := storage.Open(opts.driver, opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(ctx, username, hash)
	if errors.Is(err, apperr.ErrConflict) {
		return fmt.Errorf("user %s already exists", username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
