package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iare/sceh-portal/internal/core/domain"
	"github.com/iare/sceh-portal/internal/infrastructure/roster"
)

var (
	resolveRosterFile string
	resolveJSON       bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Show the role, name and navigation a demo login would produce.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := roster.Load(resolveRosterFile)
		if err != nil {
			return err
		}

		identifier := strings.TrimSpace(args[0])
		s := &domain.UserSession{
			Email: identifier,
			Name:  domain.ResolveDisplayName(identifier, users),
			Role:  domain.ResolveRole(identifier),
		}
		if e, ok := users.Lookup(identifier); ok {
			s.Role = e.Role
		}
		return printResolution(cmd, s)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRosterFile, "roster", "", "roster TOML file (defaults to the built-in demo users)")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print JSON")
}

type resolution struct {
	Email string           `json:"email"`
	Name  string           `json:"name"`
	Role  domain.Role      `json:"role"`
	Home  string           `json:"home"`
	Nav   []domain.NavItem `json:"nav"`
}

func printResolution(cmd *cobra.Command, s *domain.UserSession) error {
	r := resolution{
		Email: s.Email,
		Name:  s.Name,
		Role:  s.Role,
		Home:  s.Role.HomePath(),
		Nav:   domain.BuildNav(s),
	}

	if resolveJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	labels := make([]string, 0, len(r.Nav))
	for _, item := range r.Nav {
		labels = append(labels, item.Label)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "email\t%s\n", r.Email)
	fmt.Fprintf(w, "name\t%s\n", r.Name)
	fmt.Fprintf(w, "role\t%s (%s)\n", r.Role, r.Role.Label())
	fmt.Fprintf(w, "home\t%s\n", r.Home)
	fmt.Fprintf(w, "nav\t%s\n", strings.Join(labels, ", "))
	return w.Flush()
}
