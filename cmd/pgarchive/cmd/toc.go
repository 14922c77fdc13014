package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wichert/pgarchive/archive"
)

var tocSection string

var tocCmd = &cobra.Command{
	Use:   "toc FILE",
	Short: "List the table of contents of an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := parseArchiveFile(args[0])
		if err != nil {
			return err
		}

		var filter archive.Section
		if tocSection != "" {
			filter, err = sectionFromName(tocSection)
			if err != nil {
				return err
			}
		}

		for _, e := range a.Entries {
			if tocSection != "" && e.Section != filter {
				continue
			}
			fmt.Printf("%6d  %-8s  %-20s  %s\n", e.ID, e.Section, e.Desc, e.Tag)
		}
		return nil
	},
}

func sectionFromName(name string) (archive.Section, error) {
	switch strings.ToLower(name) {
	case "none":
		return archive.SectionNone, nil
	case "predata", "pre-data":
		return archive.SectionPreData, nil
	case "data":
		return archive.SectionData, nil
	case "postdata", "post-data":
		return archive.SectionPostData, nil
	default:
		return 0, fmt.Errorf("unknown section %q", name)
	}
}

func init() {
	tocCmd.Flags().StringVar(&tocSection, "section", "",
		"only show entries in this section (none, pre-data, data, post-data)")
	rootCmd.AddCommand(tocCmd)
}
