package cmd

import (
	"errors"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chemform/molparse/worker"
)

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [formula...]",
		Short: "Count the atoms of one or more formulas",
		Long: `Validate each formula and print its atom counts.

Formulas are taken from the arguments, or one per line from standard input
with --stdin. The exit code is 1 if any formula fails.`,
		Example: `  molparse parse 'K4[ON(SO3)2]2'
  molparse parse --strict --output json H2O 'Mg(OH)2'
  cat formulas.txt | molparse parse --stdin`,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if a.stdin && len(args) > 0 {
				return errors.New("use either arguments or --stdin, not both")
			}
			if !a.stdin && len(args) == 0 {
				return errors.New("no formulas given")
			}

			ctx, cancel := a.runContext(cmd)
			defer cancel()

			var results []*worker.JobResult
			if a.stdin {
				for r := range a.parser.ParseLines(ctx, cmd.InOrStdin()) {
					results = append(results, r)
				}
				sort.Slice(results, func(i, j int) bool {
					return results[i].Index < results[j].Index
				})
			} else {
				results = a.parser.ParseBatch(ctx, args).Results
			}

			out := a.renderer(cmd)
			failed := 0
			for _, r := range results {
				if r.Error != nil {
					failed++
					out.failure(r.Formula, r.Error)
					continue
				}
				out.result(r.Result)
			}
			if err := out.flush(); err != nil {
				return err
			}

			a.log.Debug("parse finished", "formulas", len(results), "failed", failed)
			if failed > 0 {
				return errFailures
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&a.strict, "strict", false, "report unreadable input and count overflows as errors")
	cmd.Flags().BoolVar(&a.stdin, "stdin", false, "read formulas from standard input, one per line")
	return cmd
}
