package cli

import (
	"context"
	"os"

	"github.com/gabapcia/blockledger/internal/simulation"

	"github.com/urfave/cli/v3"
)

// Run builds and executes the blockledger command-line application.
//
// Available commands:
//
//   - `simulate`: Drives a fresh chain built by newChain with proposers,
//     transfers and periodic forks, then prints a summary.
//
// defaults are applied before the options derived from flags, so flags win.
func Run(ctx context.Context, newChain simulation.ChainFactory, defaults ...simulation.Option) error {
	return newApp(newChain, defaults...).Run(ctx, os.Args)
}

func newApp(newChain simulation.ChainFactory, defaults ...simulation.Option) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "blockledger",
		Description:           "Block-tree ledger that validates blocks against per-branch unspent output snapshots.",
		Usage:                 "blockledger [command] [flags]",
		Commands: []*cli.Command{
			simulateCommand(newChain, defaults...),
		},
	}
}
