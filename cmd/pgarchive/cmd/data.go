package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wichert/pgarchive/archive"
)

var dataCmd = &cobra.Command{
	Use:   "data FILE TABLE",
	Short: "Write the raw data of a table to stdout",
	Long: `Data streams the decompressed COPY data of a single table to standard
output, exactly as pg_dump stored it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, table := args[0], args[1]

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := archive.Parse(f)
		if err != nil {
			return fmt.Errorf("can not read %s: %w", path, err)
		}

		entry := a.FindEntry(archive.SectionData, "TABLE DATA", table)
		if entry == nil {
			return fmt.Errorf("no data for table %q present", table)
		}

		data, err := a.OpenData(f, entry)
		if err != nil {
			return err
		}
		defer data.Close()

		_, err = io.Copy(os.Stdout, data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
}
