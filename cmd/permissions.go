package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/workspace-mcp/internal/google"
	"github.com/teemow/workspace-mcp/internal/permissions"
)

func newPermissionsCmd() *cobra.Command {
	var specs []string

	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Show permission levels and the OAuth scopes they grant",
		Long: `Show the permission ladder of every service and the OAuth scopes each
level adds. Levels are cumulative: a level grants its own scopes and those of
every level below it.

With --permissions the command resolves the given levels and prints the
scopes the server would request from Google.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(specs) == 0 {
				printLadders(cmd.OutOrStdout())
				return nil
			}
			cfg, err := permissions.ParseSpecs(specs)
			if err != nil {
				return err
			}
			printResolved(cmd.OutOrStdout(), cfg)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&specs, "permissions", nil, "Permission levels to resolve as service:level (comma separated)")

	return cmd
}

func printLadders(w io.Writer) {
	for _, service := range permissions.Services() {
		fmt.Fprintf(w, "%s:\n", service)
		for _, level := range permissions.Ladder(service) {
			fmt.Fprintf(w, "  %-10s %s\n", level.Name, strings.Join(level.Scopes, " "))
		}
	}
}

func printResolved(w io.Writer, cfg *permissions.Config) {
	fmt.Fprintf(w, "Permissions: %s\n\n", cfg)

	allowed, _ := cfg.AllowedScopes()
	fmt.Fprintf(w, "Granted scopes (%d):\n", len(allowed))
	for _, scope := range allowed.Sorted() {
		fmt.Fprintf(w, "  %s\n", scope)
	}

	requested := google.ScopesFor(cfg)
	fmt.Fprintf(w, "\nRequested from Google (%d):\n", len(requested))
	for _, scope := range requested {
		fmt.Fprintf(w, "  %s\n", scope)
	}
}
