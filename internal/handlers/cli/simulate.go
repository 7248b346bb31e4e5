package cli

import (
	"context"
	"fmt"

	"github.com/gabapcia/blockledger/internal/simulation"

	"github.com/urfave/cli/v3"
)

// simulateCommand returns a CLI command that runs a local simulation and
// prints where the chain ended up.
//
// Usage example:
//
//	blockledger simulate --blocks 50 --fork-every 4 --tx-per-block 3
func simulateCommand(newChain simulation.ChainFactory, defaults ...simulation.Option) *cli.Command {
	return &cli.Command{
		Name:        "simulate",
		Description: "Propose blocks from a set of local participants, forking every few blocks, and report the resulting chain.",
		Usage:       "Runs a block proposal simulation against an in-memory chain.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "blocks",
				Usage: "Number of blocks to propose",
				Value: 20,
			},
			&cli.IntFlag{
				Name:  "fork-every",
				Usage: "Propose a sibling of the tip every N blocks (0 disables forks)",
				Value: 0,
			},
			&cli.IntFlag{
				Name:  "tx-per-block",
				Usage: "Transfers added to the pending pool before each proposal",
				Value: 2,
			},
			&cli.IntFlag{
				Name:  "participants",
				Usage: "Number of participants proposing and paying each other",
				Value: 3,
			},
			&cli.UintFlag{
				Name:  "seed",
				Usage: "Seed for picking transfers",
				Value: 1,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := append(defaults[:len(defaults):len(defaults)],
				simulation.WithBlocks(int(c.Int("blocks"))),
				simulation.WithForkEvery(int(c.Int("fork-every"))),
				simulation.WithTxPerBlock(int(c.Int("tx-per-block"))),
				simulation.WithParticipants(int(c.Int("participants"))),
				simulation.WithSeed(uint64(c.Uint("seed"))),
			)

			sim, err := simulation.New(newChain, opts...)
			if err != nil {
				return err
			}

			summary, err := sim.Run(ctx)
			if err != nil {
				return err
			}

			return printSummary(c, summary)
		},
	}
}

func printSummary(c *cli.Command, s simulation.Summary) error {
	_, err := fmt.Fprintf(c.Root().Writer,
		"blocks: %d submitted, %d accepted, %d rejected\n"+
			"transfers: %d\n"+
			"tip: %s (height %d)\n"+
			"retained: %d blocks from height %d, %d leaves\n",
		s.Submitted, s.Accepted, s.Rejected,
		s.Transactions,
		s.TipHash, s.TipHeight,
		s.Retained, s.OldestHeight, s.Leaves,
	)
	return err
}
