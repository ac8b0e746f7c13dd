package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"knapsackga/internal/storage"
	"knapsackga/pkg/knapsack"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "knapsack.db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalOptions are shared by every subcommand.
type globalOptions struct {
	runsDir    string
	exportsDir string
	storeKind  string
	dbPath     string
}

func (o *globalOptions) client() (*knapsack.Client, error) {
	return knapsack.New(knapsack.Options{
		StoreKind:  o.storeKind,
		DBPath:     o.dbPath,
		RunsDir:    o.runsDir,
		ExportsDir: o.exportsDir,
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "knapsackctl",
		Short:         "Solve 0/1 knapsack test cases with a genetic algorithm",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.runsDir, "runs-dir", defaultRunsDir, "directory holding run artifacts and the run index")
	flags.StringVar(&opts.exportsDir, "exports-dir", defaultExportsDir, "default export destination")
	flags.StringVar(&opts.storeKind, "store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	flags.StringVar(&opts.dbPath, "db-path", defaultDBPath, "sqlite database path")

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)

	root.AddCommand(
		newSolveCommand(opts),
		newRunsCommand(opts),
		newFitnessCommand(opts),
		newDiagnosticsCommand(opts),
		newPlotCommand(opts),
		newExportCommand(opts),
		newOperatorsCommand(),
	)
	return root
}
