package cmd

import (
	"crypto/rand"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/profiles"
)

func newProfilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage saved connection profiles",
	}
	cmd.AddCommand(
		newProfilesListCmd(a),
		newProfilesAddCmd(a),
		newProfilesDeleteCmd(a),
		newProfilesSelectCmd(a),
		newProfilesKeygenCmd(),
	)
	return cmd
}

func newProfilesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(store *profiles.Store) error {
				selected, _ := store.Selected()

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "\tID\tNAME\tENDPOINT\tREGION\tPATH STYLE")
				for _, p := range store.List() {
					marker := ""
					if p.ID == selected.ID {
						marker = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", marker, p.ID, p.Name, p.Endpoint, p.Region, p.ForcePathStyle)
				}
				return w.Flush()
			})
		},
	}
}

func newProfilesAddCmd(a *app) *cobra.Command {
	var (
		profile models.ConnectionProfile
		test    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a profile and select it",
		Long: `Save a connection profile. Passing --id of an existing profile replaces
it in place; otherwise the new profile is listed first. The saved profile
becomes the selected one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if test {
				gw, err := a.gateway(nil)
				if err != nil {
					return err
				}
				result, err := gw.TestConnection(ctx, profile)
				if err != nil {
					return fmt.Errorf("connection test failed: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), result.Message)
			}

			return a.withStore(ctx, func(store *profiles.Store) error {
				saved, err := store.Save(ctx, profile)
				if err != nil {
					return err
				}
				if err := store.Select(ctx, saved.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s (%s)\n", saved.Name, saved.ID)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&profile.ID, "id", "", "profile id (generated when empty)")
	flags.StringVar(&profile.Name, "name", "", "display name (defaults to the endpoint host)")
	flags.StringVar(&profile.Endpoint, "endpoint", "", "S3 endpoint, e.g. http://localhost:9000")
	flags.StringVar(&profile.Region, "region", "", "region (default us-east-1)")
	flags.StringVar(&profile.AccessKeyID, "access-key", "", "access key id")
	flags.StringVar(&profile.SecretAccessKey, "secret-key", "", "secret access key")
	flags.BoolVar(&profile.ForcePathStyle, "path-style", true, "use path-style bucket addressing")
	flags.BoolVar(&test, "test", false, "test the connection before saving")
	_ = cmd.MarkFlagRequired("endpoint")
	_ = cmd.MarkFlagRequired("access-key")
	_ = cmd.MarkFlagRequired("secret-key")
	return cmd
}

func newProfilesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <profile>",
		Short: "Delete a profile and its remembered view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store *profiles.Store) error {
				p, err := findProfile(store, args[0])
				if err != nil {
					return err
				}
				if err := store.Delete(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

func newProfilesSelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <profile>",
		Short: "Select the profile opened by default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store *profiles.Store) error {
				p, err := findProfile(store, args[0])
				if err != nil {
					return err
				}
				if err := store.Select(ctx, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected profile %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
}

func newProfilesKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random value for storage.secret_key",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := GenerateSecretKey(rand.Reader)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}
