package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/LovationAdmin/bizpanel/config"
	"github.com/LovationAdmin/bizpanel/models"
	"github.com/LovationAdmin/bizpanel/services"
	"github.com/LovationAdmin/bizpanel/utils"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bizctl",
		Short:         "Inspect the page registry and compute budget totals",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(menuCmd())
	rootCmd.AddCommand(totalsCmd())
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List every mounted page route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := services.NewPageRegistry(config.PagesConfig)
			if err != nil {
				return err
			}
			printPages(cmd.OutOrStdout(), registry.MountableRoutes())
			return nil
		},
	}
}

func menuCmd() *cobra.Command {
	var placement string
	var permFlags []string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List the pages of a menu visible with the given permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			perms, err := parsePermissions(permFlags)
			if err != nil {
				return err
			}
			registry, err := services.NewPageRegistry(config.PagesConfig)
			if err != nil {
				return err
			}
			printPages(cmd.OutOrStdout(), registry.PagesForPlacement(placement, perms))
			return nil
		},
	}

	cmd.Flags().StringVar(&placement, "placement", config.PlacementNavigate, "menu placement tag")
	cmd.Flags().StringSliceVar(&permFlags, "perm", nil, "granted permissions (admin, project, personal, financial)")
	return cmd
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals [file.json]",
		Short: "Compute budget totals for a task list (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			tasks, err := readTasks(in)
			if err != nil {
				return err
			}

			preview := services.NewBudgetService(services.NewMemoryBudgetStore(), nil).Preview(tasks)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total cost:    %s\n", preview.Display.TotalCost)
			fmt.Fprintf(out, "Total revenue: %s\n", preview.Display.TotalRevenue)
			fmt.Fprintf(out, "Total value:   %s\n", preview.Display.TotalValue)
			if preview.Provisional {
				fmt.Fprintln(out, "Provisional, fix before submitting:")
				for _, field := range slices.Sorted(maps.Keys(preview.Issues)) {
					fmt.Fprintf(out, "  %s: %s\n", field, preview.Issues[field])
				}
			}
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var subject, email, secret string
	var permFlags []string
	var ttl time.Duration
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			perms, err := parsePermissions(permFlags)
			if err != nil {
				return err
			}
			token, err := utils.GenerateAccessToken(secret, subject, email, perms, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "dev-user", "user id")
	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&secret, "secret", cfg.JWTSecret, "signing secret (defaults to JWT_SECRET)")
	cmd.Flags().StringSliceVar(&permFlags, "perm", nil, "granted permissions")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.TokenTTL, "token lifetime (defaults to TOKEN_TTL)")
	return cmd
}

func parsePermissions(values []string) (models.PermissionSet, error) {
	var set models.PermissionSet
	for _, v := range values {
		p := models.Permission(strings.ToLower(strings.TrimSpace(v)))
		if !p.Valid() {
			return models.PermissionSet{}, fmt.Errorf("unknown permission %q", v)
		}
		set = set.Grant(p)
	}
	return set, nil
}

// readTasks accepts either {"tasks": [...]} or a bare array.
func readTasks(r io.Reader) ([]models.TaskEntryInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var req models.TotalsRequest
	if err := json.Unmarshal(data, &req); err == nil && req.Tasks != nil {
		return req.Tasks, nil
	}
	var tasks []models.TaskEntryInput
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse tasks: %w", err)
	}
	return tasks, nil
}

func printPages(w io.Writer, pages []models.PageDescriptor) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROUTE\tTITLE\tLOGIN\tPERMISSIONS\tPLACEMENTS")
	for _, p := range pages {
		perms := make([]string, 0, len(p.RequiredPermissions))
		for _, rp := range p.RequiredPermissions {
			perms = append(perms, string(rp))
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", p.Route, p.Title, p.RequiresLogin,
			strings.Join(perms, ","), strings.Join(p.Placements, ","))
	}
	tw.Flush()
}
