package cmd

import (
	"github.com/spf13/cobra"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Parse the sample formulas",
		Long: `Parse the configured sample formulas and print each composition.

The samples default to H2O, Mg(OH)2, CH3(CH2)6CH3, (GFe)2{SO4(DC4)8}4 and
K4[ON(SO3)2]2; set demo.samples in the config file to change them. Invalid
samples are reported and do not change the exit code.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.runContext(cmd)
			defer cancel()

			out := a.renderer(cmd)
			for _, formula := range a.cfg.Demo.Samples {
				res, err := a.parser.Parse(ctx, formula)
				if err != nil {
					out.failure(formula, err)
					continue
				}
				out.result(res)
			}
			return out.flush()
		}),
	}
}
