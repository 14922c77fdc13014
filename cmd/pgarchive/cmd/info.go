package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wichert/pgarchive/archive"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Show the header of one or more archives",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			a, err := parseArchiveFile(path)
			if err != nil {
				return err
			}

			fmt.Printf("%s:\n", path)
			fmt.Printf("  format version:  %s\n", a.Version)
			fmt.Printf("  compression:     %s\n", a.CompressionMethod)
			fmt.Printf("  created:         %s\n", a.CreateDate.Format("2006-01-02 15:04:05"))
			fmt.Printf("  database:        %s\n", a.DatabaseName)
			fmt.Printf("  server version:  %s\n", a.ServerVersion)
			fmt.Printf("  pg_dump version: %s\n", a.PGDumpVersion)
			fmt.Printf("  toc entries:     %d\n", len(a.Entries))
		}
		return nil
	},
}

// parseArchiveFile opens and parses an archive, leaving the file closed.
func parseArchiveFile(path string) (*archive.Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := archive.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("can not read %s: %w", path, err)
	}
	return a, nil
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
