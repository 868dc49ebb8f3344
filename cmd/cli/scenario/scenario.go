package scenario

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/logging"
	"github.com/myrjola/whodunit/internal/scenarios"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "scenario",
	Title: "Scenario operations",
}

var ErrInvalidFiles = errors.NewSentinel("invalid scenario files")

func init() {
	List.Flags().String("dir", "", "directory of additional scenario documents")
}

var Validate = &cobra.Command{
	Use:     "validate [files]",
	GroupID: "scenario",
	Short:   "Validate scenario documents",
	Long:    `Parses and validates scenario documents and prints a summary of each valid one`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invalid := 0
		for _, file := range args {
			data, err := os.ReadFile(file)
			if err != nil {
				return errors.Wrap(err, "read scenario", slog.String("file", file))
			}
			s, err := scenarios.Parse(data)
			if err != nil {
				invalid++
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", file, err)
				continue
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", file, scenarios.Summary(s))
		}
		if invalid > 0 {
			return errors.Wrap(ErrInvalidFiles, "validate", slog.Int("invalid", invalid))
		}
		return nil
	},
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "scenario",
	Short:   "List available scenarios",
	Long:    `Lists the embedded scenarios and the ones found in --dir`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, err := cmd.Flags().GetString("dir")
		if err != nil {
			return errors.Wrap(err, "invalid dir flag")
		}
		logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			AddSource:   false,
			Level:       slog.LevelWarn,
			ReplaceAttr: nil,
		})))
		provider, err := scenarios.NewProvider(dir, logger)
		if err != nil {
			return errors.Wrap(err, "new scenario provider")
		}
		all, err := provider.All()
		if err != nil {
			return errors.Wrap(err, "list scenarios")
		}
		for _, s := range all {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.ID, scenarios.Summary(s))
		}
		return nil
	},
}
