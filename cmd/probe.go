package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"comicshelf/internal/zipenc"
)

var probeCmd = &cobra.Command{
	Use:   "probe <archive>",
	Short: "Detect the filename encoding of a ZIP-based archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings()
		if err != nil {
			return err
		}
		probe := zipenc.NewProbe(cfg.Encodings)
		res, err := probe.DetectFile(args[0], cfg.PreferredEncoding)
		if err != nil {
			return err
		}

		enc := res.Encoding
		if enc == "" {
			enc = "none"
		}
		fmt.Printf("encoding: %s\n", enc)
		fmt.Printf("entries:  %d\n", len(res.Filenames))
		if verbose {
			for _, name := range res.Filenames {
				fmt.Println(name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
