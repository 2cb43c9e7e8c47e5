package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ilramdhan/scene-expr/internal/modules/evaluation"
	"github.com/ilramdhan/scene-expr/internal/runtime"
)

// NewEvalCommand creates the eval command
func NewEvalCommand() *cobra.Command {
	var (
		scenePath   string
		primary     string
		secondary   string
		compareOp   string
		compareWith string
		modifyOp    string
		current     float64
		currentText string
	)

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expression against a scene file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := evaluation.EvaluateRequest{
				Expression: args[0],
				Primary:    primary,
				Secondary:  secondary,
			}
			if scenePath != "" {
				def, err := runtime.LoadSceneFile(scenePath)
				if err != nil {
					return err
				}
				req.Scene = *def
			}
			if compareOp != "" {
				req.Condition = &evaluation.ConditionRequest{Operator: compareOp, Value: compareWith}
			}
			if modifyOp != "" {
				req.Action = &evaluation.ActionRequest{Operator: modifyOp, Current: current, CurrentText: currentText}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			engine := newEngine(cmd.ErrOrStderr())
			res, err := engine.Evaluate(ctx, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&scenePath, "scene", "s", "", "scene file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&primary, "primary", "", "name of the first object passed to the expression")
	cmd.Flags().StringVar(&secondary, "secondary", "", "name of the second object passed to the expression")
	cmd.Flags().StringVar(&compareOp, "compare", "", "comparison operator to test the result with (e.g. \">=\")")
	cmd.Flags().StringVar(&compareWith, "with", "0", "expression the result is compared with")
	cmd.Flags().StringVar(&modifyOp, "modify", "", "modification operator to apply the result with (e.g. \"+\")")
	cmd.Flags().Float64Var(&current, "current", 0, "current number the modification applies to")
	cmd.Flags().StringVar(&currentText, "current-text", "", "current text the modification applies to")
	return cmd
}
