// Command patchxml applies a YAML patch file to an XML file and writes
// the result.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patchtools/patchxml"
)

var (
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "patchxml <xml-file> <patch-file> <result-file>",
	Short:         "patchxml applies a YAML-defined structural patch to an XML document",
	Args:          cobra.ExactArgs(3),
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return run(args[0], args[1], args[2])
	},
}

func run(xmlPath, patchPath, resultPath string) error {
	xmlContent, err := os.ReadFile(xmlPath)
	if err != nil {
		return fmt.Errorf("could not read XML file: %w", err)
	}
	patchContent, err := os.ReadFile(patchPath)
	if err != nil {
		return fmt.Errorf("could not read patch file: %w", err)
	}

	logger.Debug("patching",
		zap.String("xml", xmlPath),
		zap.String("patch", patchPath),
		zap.Int("xml_bytes", len(xmlContent)),
		zap.Int("patch_bytes", len(patchContent)))

	result, err := patchxml.Patch(string(xmlContent), string(patchContent))
	if err != nil {
		return err
	}

	if err := os.WriteFile(resultPath, []byte(result), 0o644); err != nil {
		return fmt.Errorf("could not write result file: %w", err)
	}
	logger.Debug("result written", zap.String("path", resultPath), zap.Int("bytes", len(result)))
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
