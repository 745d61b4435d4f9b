package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/simulation"
)

type inspectOptions struct {
	filter    trace.AccessFilter
	component string
}

var inspectOpts = inspectOptions{
	filter: trace.AccessFilter{Core: trace.AllCores},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <recording.sqlite3>",
	Short: "Print the content of a recorded simulation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		opts := inspectOpts
		opts.filter.Type = strings.ToUpper(opts.filter.Type)

		return inspect(cmd.Context(), cmd.OutOrStdout(), reader, opts)
	},
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectOpts.filter.Limit, "limit", 20,
		"Number of accesses to print, 0 prints all")
	f.IntVar(&inspectOpts.filter.Core, "core", trace.AllCores,
		"Only print the accesses of this core, -1 prints all cores")
	f.StringVar(&inspectOpts.filter.Type, "type", "",
		"Only print accesses of this type (IFETCH, LOAD, STORE)")
	f.Uint64Var(&inspectOpts.filter.FromCycle, "from", 0,
		"Only print accesses issued from this cycle")
	f.Uint64Var(&inspectOpts.filter.ToCycle, "to", 0,
		"Only print accesses issued up to this cycle, 0 means the end")
	f.StringVar(&inspectOpts.component, "component", "",
		"Only print the statistics of this component")

	rootCmd.AddCommand(inspectCmd)
}

func inspect(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	opts inspectOptions,
) error {
	accesses, total, err := trace.ReadAccesses(ctx, reader, opts.filter)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Accesses (%d matching):\n", total)

	for _, e := range accesses {
		fmt.Fprintf(w, "  %8d core %d %-6s 0x%x delay %d\n",
			e.Cycle, e.Core, e.Type, e.Addr, e.Delay)
	}

	stats, err := simulation.ReadStats(ctx, reader, opts.component)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Statistics:")

	for _, e := range stats {
		fmt.Fprintf(w, "  %-10s %-16s %g\n", e.Component, e.Stat, e.Value)
	}

	return nil
}
