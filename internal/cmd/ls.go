package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/damacus/bucket-explorer/internal/models"
	"github.com/damacus/bucket-explorer/internal/navigator"
	"github.com/damacus/bucket-explorer/internal/profiles"
	"github.com/damacus/bucket-explorer/internal/services"
)

func newLsCmd(a *app) *cobra.Command {
	var (
		pages    int
		asJSON   bool
		noRecord bool
	)

	cmd := &cobra.Command{
		Use:   "ls <profile> [bucket] [prefix]",
		Short: "List buckets, or one folder level of a bucket",
		Long: `List the buckets visible to a profile, or the folders and files directly
under a prefix of a bucket. Listings are paged; --pages controls how many
pages are fetched (0 fetches all of them). The position reached is remembered
as the profile's view unless --no-record is given.`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store *profiles.Store) error {
				profile, err := findProfile(store, args[0])
				if err != nil {
					return err
				}
				gw, err := a.gateway(nil)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(args) == 1 {
					buckets, err := gw.ListBuckets(ctx, profile)
					if err != nil {
						return err
					}
					return printBuckets(out, buckets, asJSON)
				}

				opts := []navigator.Option{
					navigator.WithPageSize(a.cfg.Browse.PageSize),
					navigator.WithLogger(a.logger.Named("navigator")),
				}
				if !noRecord {
					opts = append(opts, navigator.WithRecorder(navigator.ViewRecorderFunc(
						func(ctx context.Context, view models.ViewState) error {
							return store.RecordView(ctx, profile.ID, view)
						})))
				}
				nav := navigator.New(gatewayLister(gw, profile), opts...)

				view := models.ViewState{Bucket: args[1]}
				if len(args) == 3 {
					view.Prefix = args[2]
				}
				state, err := nav.Resume(ctx, view)
				if err != nil {
					return err
				}

				for page := 1; ; page++ {
					snap := state.Snapshot()
					if err := printSnapshot(out, snap, asJSON); err != nil {
						return err
					}
					if !snap.CanLoadNext {
						return nil
					}
					if pages > 0 && page >= pages {
						fmt.Fprintf(cmd.ErrOrStderr(), "More entries available; rerun with --pages %d or --pages 0.\n", pages+1)
						return nil
					}
					if state, err = nav.LoadNextPage(ctx); err != nil {
						return err
					}
				}
			})
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON document per page")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not remember the listed position")
	return cmd
}

// gatewayLister adapts the gateway to the navigator for a fixed profile
func gatewayLister(gw *services.Gateway, profile models.ConnectionProfile) navigator.Lister {
	return navigator.ListerFunc(func(ctx context.Context, f navigator.Fetch, maxKeys int) (*models.ListingPage, error) {
		return gw.ListObjects(ctx, profile, services.ListObjectsRequest{
			Bucket:            f.Bucket,
			Prefix:            f.Prefix,
			ContinuationToken: f.ContinuationToken,
			MaxKeys:           maxKeys,
		})
	})
}

func printBuckets(out io.Writer, buckets []models.Bucket, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(map[string]interface{}{"buckets": buckets})
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tNAME")
	for _, b := range buckets {
		fmt.Fprintf(w, "%s\t%s\n", orDash(b.CreationDate), b.Name)
	}
	return w.Flush()
}

func printSnapshot(out io.Writer, snap navigator.Snapshot, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(out).Encode(snap)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, f := range snap.Folders {
		fmt.Fprintf(w, "-\tDIR\t%s/\n", f.Name)
	}
	for _, f := range snap.Files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", orDash(f.LastModified), f.FormattedSize, f.Name)
	}
	return w.Flush()
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
