package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/maxkimambo/shellchain/internal/chain"
	"github.com/maxkimambo/shellchain/internal/chainfile"
	"github.com/maxkimambo/shellchain/internal/logger"
	"github.com/maxkimambo/shellchain/internal/utils"
	"github.com/spf13/cobra"
)

type validateOptions struct {
	file string
	vars []string
}

func newValidateCmd(global *globalOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a chain file without running it",
		Long: `Loads a chain file, expands its vars and prints the resulting plan.
Nothing is executed.

Example:
shellchain validate -f export.yaml --var device=emulator-5554
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadChainFile(opts.file, opts.vars)
			if err != nil {
				return err
			}
			items, err := f.Items(chain.New(nil, chain.Config{}))
			if err != nil {
				return err
			}

			if !global.quiet && !global.jsonLogs {
				printPlan(cmd.OutOrStdout(), chainName(f, opts.file), f, items)
			}
			logger.User.Successf("Chain file %s is valid (%d steps)", opts.file, len(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Chain file to check (required)")
	cmd.Flags().StringArrayVar(&opts.vars, "var", nil, "Override a chain var as key=value (repeatable)")

	return cmd
}

func printPlan(w io.Writer, name string, f *chainfile.File, items []chain.Item) {
	table := utils.NewTableFormatter([]string{"#", "Step", "Command", "Uses", "On success", "On error"}).
		WithMaxCellWidth(maxCellWidth)
	for i, item := range items {
		step := f.Steps[i]
		table.AddRow([]string{
			fmt.Sprintf("%d", i+1),
			item.Name(),
			item.Command(),
			uses(step),
			actionOrDefault(step.OnSuccess, chainfile.ActionContinue),
			actionOrDefault(step.OnError, chainfile.ActionStop),
		})
	}

	box := utils.NewBox(utils.InfoMessage, fmt.Sprintf("Chain %s", name))
	if f.Description != "" {
		box.AddLine(f.Description)
	}
	for _, key := range utils.SortedKeys(f.Vars) {
		box.AddBullet(fmt.Sprintf("%s = %s", key, f.Vars[key]))
	}
	if f.StepTimeout != "" {
		box.AddKeyValue("Step timeout", f.StepTimeout)
	}

	fmt.Fprintln(w, box.RenderFor(w))
	fmt.Fprint(w, table.String())
}

func uses(step chainfile.Step) string {
	var parts []string
	if step.Placeholder != "" {
		parts = append(parts, "result as "+step.Placeholder)
	}
	if step.ErrorPlaceholder != "" {
		parts = append(parts, "error as "+step.ErrorPlaceholder)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func actionOrDefault(a, fallback chainfile.Action) string {
	if a == "" {
		return string(fallback)
	}
	return string(a)
}
