package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/core/ports"
	"github.com/iare/sceh-portal/internal/infrastructure/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Inspect and load the demo roster.",
}

var rosterCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a roster file and list its users.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		users, err := roster.Load(path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tHOME")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.Email, u.Name, u.Role, u.Role.HomePath())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		cmd.Printf("%d users\n", len(users))
		return nil
	},
}

var seedPasswordStdin bool

var rosterSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a local account for every roster user that has none yet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd, seedPasswordStdin)
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

		created, skipped, err := seedRoster(ctx, auth, auth.Roster(), password)
		if err != nil {
			return err
		}
		cmd.Printf("created %d accounts, %d already present\n", created, skipped)
		return nil
	},
}

func init() {
	rosterSeedCmd.Flags().BoolVar(&seedPasswordStdin, "password-stdin", false, "read the shared password from stdin")
	rosterCmd.AddCommand(rosterCheckCmd, rosterSeedCmd)
}

type registrar interface {
	Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
}

func seedRoster(ctx context.Context, r registrar, users domain.Roster, password string) (created, skipped int, err error) {
	for _, u := range users {
		_, err := r.Register(ctx, ports.RegisterInput{
			Email:    u.Email,
			Name:     u.Name,
			Password: password,
			Role:     string(u.Role),
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrUserExists):
			skipped++
		default:
			return created, skipped, fmt.Errorf("seed %s: %w", u.Email, err)
		}
	}
	return created, skipped, nil
}
