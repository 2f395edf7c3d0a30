package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var pageOutput string

var pageCmd = &cobra.Command{
	Use:   "page <archive> <number>",
	Short: "Extract a single page (1-based) to a file or stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		number, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("page number %q is not an integer", args[1])
		}
		svc, _, err := newService()
		if err != nil {
			return err
		}
		page, err := svc.GetPage(args[0], number)
		if err != nil {
			return err
		}

		if pageOutput == "" || pageOutput == "-" {
			_, err = os.Stdout.Write(page.Data)
			return err
		}
		if err := os.WriteFile(pageOutput, page.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", pageOutput, err)
		}
		fmt.Fprintf(os.Stderr, "wrote page %d (%s, %dx%d, %d bytes) to %s\n",
			page.PageNumber, page.Filename, page.Width, page.Height, len(page.Data), pageOutput)
		return nil
	},
}

func init() {
	pageCmd.Flags().StringVarP(&pageOutput, "output", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(pageCmd)
}
