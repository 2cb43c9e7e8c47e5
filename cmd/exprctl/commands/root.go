package commands

import (
	"encoding/json"
	"io"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ilramdhan/scene-expr/config"
	"github.com/ilramdhan/scene-expr/internal/modules/evaluation"
	"github.com/ilramdhan/scene-expr/internal/runtime"
	"github.com/ilramdhan/scene-expr/pkg/logger"
	"github.com/ilramdhan/scene-expr/pkg/objectid"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "exprctl",
		Short:         "Preprocess and evaluate scene expressions offline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		NewEvalCommand(),
		NewInspectCommand(),
	)

	return rootCmd
}

// newEngine builds an engine without persistence. Stored expression
// operations are unavailable.
func newEngine(stderr io.Writer) *evaluation.Engine {
	godotenv.Load()
	cfg := config.Load()
	log := logger.Init(&cfg.Log)
	log.SetOutput(stderr)
	if log.GetLevel() > logrus.WarnLevel {
		log.SetLevel(logrus.WarnLevel)
	}
	return evaluation.NewEngine(nil, runtime.NewFunctions(), objectid.NewManager(), cfg.Evaluation, log)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
