package cmd

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	git "github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wichert/pgarchive/release"
)

var releaseFlags struct {
	ref            string
	tagPrefix      string
	repoDir        string
	manifest       string
	registry       string
	checkCommands  []string
	committerName  string
	committerEmail string
	skipValidation bool
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the tag-driven release pipeline",
	Long: `Release derives a version from the pushed tag, writes it into the
package manifest, regenerates the lock file, validates the result, commits
both files, and publishes the package to an OCI registry.

The pipeline only runs for tag references and stops at the first failing
step. The registry token is read from the ` + release.DefaultTokenEnv + `
environment variable.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := releaseFlags.ref
		if ref == "" {
			ref = viper.GetString("ref")
		}
		registry := releaseFlags.registry
		if registry == "" {
			registry = viper.GetString("registry")
		}

		repo, err := git.PlainOpen(releaseFlags.repoDir)
		if err != nil {
			return fmt.Errorf("can not open repository at %q: %w", releaseFlags.repoDir, err)
		}
		worktree := osfs.New(releaseFlags.repoDir)

		var checkers []release.Checker
		for _, command := range releaseFlags.checkCommands {
			fields := strings.Fields(command)
			if len(fields) == 0 {
				continue
			}
			checkers = append(checkers, &release.CommandChecker{
				Program:    fields[0],
				Args:       fields[1:],
				WorkingDir: releaseFlags.repoDir,
			})
		}

		pipeline, err := release.New(release.Options{
			Ref:          ref,
			TagPrefix:    releaseFlags.tagPrefix,
			FS:           worktree,
			ManifestPath: releaseFlags.manifest,
			Repo:         repo,
			Publisher: &release.OCIPublisher{
				FS:           worktree,
				Registry:     registry,
				ManifestPath: releaseFlags.manifest,
			},
			Checkers: checkers,
			Committer: release.Signature{
				Name:  releaseFlags.committerName,
				Email: releaseFlags.committerEmail,
			},
			SkipMessageValidation: releaseFlags.skipValidation,
			Logger:                logger,
		})
		if err != nil {
			return err
		}

		result, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("released %s\n", result.Version)
		fmt.Printf("  commit:    %s\n", result.CommitSHA)
		fmt.Printf("  published: %s\n", result.Reference)
		return nil
	},
}

func init() {
	releaseCmd.Flags().StringVar(&releaseFlags.ref, "ref", "",
		"triggering reference, e.g. refs/tags/v1.2.3 (also PGARCHIVE_REF)")
	releaseCmd.Flags().StringVar(&releaseFlags.tagPrefix, "tag-prefix", release.DefaultTagPrefix,
		"prefix stripped from the tag name before version parsing")
	releaseCmd.Flags().StringVar(&releaseFlags.repoDir, "repo-dir", ".",
		"repository working tree")
	releaseCmd.Flags().StringVar(&releaseFlags.manifest, "manifest", release.DefaultManifestPath,
		"manifest path relative to the working tree")
	releaseCmd.Flags().StringVar(&releaseFlags.registry, "registry", "",
		"registry host and namespace, e.g. ghcr.io/example (also PGARCHIVE_REGISTRY)")
	releaseCmd.Flags().StringArrayVar(&releaseFlags.checkCommands, "check", nil,
		"external check command to run before committing (repeatable)")
	releaseCmd.Flags().StringVar(&releaseFlags.committerName, "committer-name", "",
		"name for the release commit")
	releaseCmd.Flags().StringVar(&releaseFlags.committerEmail, "committer-email", "",
		"email for the release commit")
	releaseCmd.Flags().BoolVar(&releaseFlags.skipValidation, "skip-message-validation", false,
		"do not require a Conventional Commit release message")

	rootCmd.AddCommand(releaseCmd)
}
