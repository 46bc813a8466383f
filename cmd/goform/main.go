// Command goform parses, validates and watches form submissions against
// schemas declared in YAML or HCL.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errInvalid reports a submission that failed validation. The failures have
// already been printed.
var errInvalid = errors.New("submission is invalid")

type app struct {
	out    io.Writer
	logger *zap.Logger
	debug  bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "goform",
		Short:         "Validate form submissions against declarative schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.debug {
				config = zap.NewDevelopmentConfig()
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(a.parseCmd(), a.validateCmd(), a.jsonSchemaCmd(), a.watchCmd())
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, "goform:", err)
		}
		os.Exit(1)
	}
}
