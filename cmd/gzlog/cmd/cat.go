package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamNilotpal/gzlog/internal/adapters/compression"
)

func newCatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <file>...",
		Short: "Print log segments, decompressing archives",
		Long: `Print each file to standard output in order. Files ending in .gz or .zst
are decompressed; anything else is printed as is, so active and rotated
segments can be mixed with archives.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := catFile(cmd.OutOrStdout(), path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func catFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var r io.Reader = f
	if codec, ok := compression.ForPath(path); ok {
		dr, err := codec.NewReader(f)
		if err != nil {
			return fmt.Errorf("error opening archive %s : %w", path, err)
		}
		defer dr.Close()
		r = dr
	}

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("error reading %s : %w", path, err)
	}
	return nil
}
