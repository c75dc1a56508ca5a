package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"eleanor-server/internal/database"
	"eleanor-server/internal/indexer"
	"eleanor-server/internal/logging"
	"eleanor-server/internal/startup"
)

// Timeout for the database work of the user commands
const userTimeout = 30 * time.Second

func newIndexCmd(configPath *string) *cobra.Command {
	var modeFlag string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index every configured source once and exit",
		Long: `Index every configured source once and exit.

Modes:
  initial  ingest every audio file
  new      skip files already in the catalog
  purge    delete each source's entries, then ingest from scratch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := indexer.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runIndex(ctx, *configPath, mode, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", indexer.ModeIncremental.String(), "index mode: initial, new or purge")
	return cmd
}

func runIndex(ctx context.Context, configPath string, mode indexer.Mode, out io.Writer) error {
	config, err := startup.ReadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	orch := indexer.NewOrchestrator(db, config.IndexOptions())
	reports, indexErr := orch.IndexAll(ctx, config.IndexSources(), mode)

	for _, r := range reports {
		if r == nil {
			continue
		}
		fmt.Fprintf(out, "source %d (%s): %d inserted, %d duplicates, %d skipped, %d failed in %v\n",
			r.SourceID, r.Mode, r.Inserted, r.Duplicates, r.Skipped, len(r.Failures), r.Duration.Round(time.Millisecond))
		for _, f := range r.Failures {
			fmt.Fprintf(out, "  %s: %s\n", f.Path, f.Message)
		}
	}
	return indexErr
}

func newUserCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage the users allowed to access the server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <USERNAME> [PASSWORD]",
		Short: "Add a user; the password is prompted for when omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 2 {
				password = args[1]
			} else {
				var err error
				password, err = promptPassword(os.Stdin, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			return withUserDB(cmd.Context(), *configPath, func(ctx context.Context, db *database.Database) error {
				return addUser(ctx, db, args[0], password, cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <USERNAME>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserDB(cmd.Context(), *configPath, func(ctx context.Context, db *database.Database) error {
				return removeUser(ctx, db, args[0], cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

// UserStore is the part of the catalog database the user commands need.
type UserStore interface {
	AddUser(ctx context.Context, name, password string) (bool, error)
	RemoveUser(ctx context.Context, name string) error
}

func withUserDB(ctx context.Context, configPath string, fn func(context.Context, *database.Database) error) error {
	config, err := startup.ReadConfig(configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, userTimeout)
	defer cancel()

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()

	return fn(ctx, db)
}

func addUser(ctx context.Context, store UserStore, name, password string, out io.Writer) error {
	created, err := store.AddUser(ctx, name, password)
	if err != nil {
		return fmt.Errorf("failed to add user %s: %w", name, err)
	}
	if !created {
		fmt.Fprintf(out, "User %s already exists\n", name)
		return nil
	}
	fmt.Fprintf(out, "User %s added\n", name)
	return nil
}

func removeUser(ctx context.Context, store UserStore, name string, out io.Writer) error {
	err := store.RemoveUser(ctx, name)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("user %s not found", name)
	}
	if err != nil {
		return fmt.Errorf("failed to remove user %s: %w", name, err)
	}
	fmt.Fprintf(out, "User %s removed\n", name)
	return nil
}

// promptPassword reads a password twice without echo from a terminal, or
// a single line from piped input.
func promptPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return readPasswordLine(in)
	}

	fmt.Fprint(out, "Password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	fmt.Fprint(out, "Confirm Password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	if !bytes.Equal(password, confirm) {
		return "", errors.New("passwords do not match")
	}
	if len(password) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(password), nil
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
