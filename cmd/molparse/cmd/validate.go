package cmd

import (
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate formula...",
		Short: "Check formulas without counting atoms",
		Long: `Run the validation rules over each formula and report the first
failing rule. The exit code is 1 if any formula is invalid.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.runContext(cmd)
			defer cancel()

			out := a.renderer(cmd)
			failed := 0
			for _, formula := range args {
				if err := a.parser.Validate(ctx, formula); err != nil {
					failed++
					a.log.Info("invalid formula", "formula", formula, "error", err)
					out.failure(formula, err)
					continue
				}
				out.valid(formula)
			}
			if err := out.flush(); err != nil {
				return err
			}
			if failed > 0 {
				return errFailures
			}
			return nil
		}),
	}
}
