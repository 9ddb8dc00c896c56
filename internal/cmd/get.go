package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/damacus/bucket-explorer/internal/profiles"
)

func newGetCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <profile> <bucket> <key>",
		Short: "Download one object",
		Long: `Download one object. Without -o the file is written to the current
directory under the name suggested by the store; -o - writes to stdout.`,
		Args: cobra.ExactArgs(3),
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

				dl, err := gw.DownloadObject(ctx, profile, args[1], args[2])
				if err != nil {
					return err
				}
				defer func() {
					if err := dl.Body.Close(); err != nil {
						a.logger.Debug("failed to close object body", zap.Error(err))
					}
				}()

				if output == "-" {
					_, err := io.Copy(cmd.OutOrStdout(), dl.Body)
					return err
				}

				path := output
				if path == "" {
					path = filepath.Base(dl.Filename)
				}
				n, err := writeFile(path, dl.Body)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path, - for stdout")
	return cmd
}

// writeFile copies r into path through a temporary file in the same directory
func writeFile(path string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("rename %s: %w", path, err)
	}
	return n, nil
}
