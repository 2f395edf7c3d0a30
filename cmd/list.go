package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listDimensions bool

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the pages of a comic archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService()
		if err != nil {
			return err
		}
		pages, err := svc.ListPages(args[0], listDimensions)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		if listDimensions {
			fmt.Fprintln(w, "PAGE\tFILENAME\tSIZE\tDIMENSIONS")
			for _, p := range pages {
				fmt.Fprintf(w, "%d\t%s\t%d\t%dx%d\n", p.PageNumber, p.Filename, p.FileSize, p.Width, p.Height)
			}
		} else {
			fmt.Fprintln(w, "PAGE\tFILENAME\tSIZE")
			for _, p := range pages {
				fmt.Fprintf(w, "%d\t%s\t%d\n", p.PageNumber, p.Filename, p.FileSize)
			}
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listDimensions, "dimensions", "d", false, "Decode every page to report pixel dimensions")
	rootCmd.AddCommand(listCmd)
}
