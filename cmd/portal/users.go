package main

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/core/service"
	mongostore "github.com/iare/sceh-portal/internal/infrastructure/db/mongo"
	"github.com/iare/sceh-portal/internal/infrastructure/roster"
	"github.com/iare/sceh-portal/internal/pkg/config"
	"github.com/iare/sceh-portal/pkg/logger"
)

const commandTimeout = 30 * time.Second

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage local portal accounts.",
}

var (
	createEmail         string
	createName          string
	createRole          string
	createDepartment    string
	createPasswordStdin bool
)

var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a local account with a bcrypt password.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(createEmail) == "" {
			return errors.New("--email is required")
		}

		password, err := readPassword(cmd, createPasswordStdin)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
		defer cancel()

		auth, closeDB, err := accountService(ctx)
		if err != nil {
			return err
		}
		defer closeDB()

		role := createRole
		if role == "" {
			role = "student"
		}
		user, err := auth.Register(ctx, ports.RegisterInput{
			Email:      createEmail,
			Name:       createName,
			Password:   password,
			Role:       role,
			Department: createDepartment,
		})
		if err != nil {
			return err
		}

		cmd.Printf("created %s user: %s (%s)\n", user.Role, user.Email, user.Name)
		return nil
	},
}

func init() {
	createUserCmd.Flags().StringVar(&createEmail, "email", "", "account email")
	createUserCmd.Flags().StringVar(&createName, "name", "", "display name (derived from the email when empty)")
	createUserCmd.Flags().StringVar(&createRole, "role", "", "student, faculty, coordinator, hod or admin (default student)")
	createUserCmd.Flags().StringVar(&createDepartment, "department", "", "department")
	createUserCmd.Flags().BoolVar(&createPasswordStdin, "password-stdin", false, "read the password from stdin")
	usersCmd.AddCommand(createUserCmd)
}

// accountService wires an AuthService for account management only. Sessions
// are never started from the CLI.
func accountService(ctx context.Context) (*service.AuthService, func(), error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	log := initLogger(cfg)

	users, err := roster.Load(cfg.Auth.RosterFile)
	if err != nil {
		return nil, nil, err
	}

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := mongostore.NewAuthRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		disconnectMongo(client, log)
		return nil, nil, err
	}

	auth := service.NewAuthService(repo, nil, service.AuthOptions{Roster: users}, logger.For("cli"))
	return auth, func() { disconnectMongo(client, log) }, nil
}

func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", errors.New("password is empty")
		}
		password := strings.TrimRight(scanner.Text(), "\r\n")
		if password == "" {
			return "", errors.New("password is empty")
		}
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal for the password prompt (use --password-stdin)")
	}

	cmd.Print("Password: ")
	pass1, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	if len(pass1) == 0 {
		return "", errors.New("password is empty")
	}

	cmd.Print("Confirm password: ")
	pass2, err := term.ReadPassword(fd)
	cmd.Println()
	if err != nil {
		return "", err
	}
	if string(pass1) != string(pass2) {
		return "", errors.New("passwords do not match")
	}
	return string(pass1), nil
}
