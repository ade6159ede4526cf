package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/pushchain/push-bridge-core/bridgeCore/config"
	"github.com/pushchain/push-bridge-core/bridgeCore/core"
	"github.com/pushchain/push-bridge-core/bridgeCore/logger"
	"github.com/pushchain/push-bridge-core/bridgeCore/relay"
)

func submitCmd() *cobra.Command {
	var (
		oracle    string
		signature string
		node      string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit [submission-id]...",
		Short: "Record oracle votes for submissions",
		Long: `Record oracle votes for submissions.

With --oracle the votes are written to the local node state as that oracle.
Several ids are recorded as one batch: if any vote fails, none is kept.
With --signature a single signed vote is relayed to a running node,
retrying while the node reports a temporary failure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseHashes(args)
			if err != nil {
				return err
			}
			if (oracle == "") == (signature == "") {
				return fmt.Errorf("exactly one of --oracle or --signature is required")
			}

			if oracle != "" {
				addr, err := parseAddress(oracle)
				if err != nil {
					return err
				}
				return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
					if len(ids) == 1 {
						confirmed, err := c.Aggregator().Submit(ctx, addr, ids[0])
						if err != nil {
							return err
						}
						fmt.Fprintf(cmd.OutOrStdout(), "vote recorded, confirmed=%t\n", confirmed)
						return nil
					}
					confirmed, err := c.Aggregator().SubmitMany(ctx, addr, ids)
					if err != nil {
						return err
					}
					for i, id := range ids {
						fmt.Fprintf(cmd.OutOrStdout(), "%s confirmed=%t\n", id.Hex(), confirmed[i])
					}
					return nil
				})
			}

			if len(ids) != 1 {
				return fmt.Errorf("--signature relays exactly one submission")
			}
			id := ids[0]

			sig, err := hexutil.Decode(signature)
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			cfg, err := config.Load(homeDir)
			if err != nil {
				return err
			}
			if node == "" {
				node = fmt.Sprintf("http://localhost:%d", cfg.QueryServerPort)
			}

			relayer := relay.NewRelayer(
				relay.NewHTTPSubmitter(node, timeout),
				relay.RetryConfigFrom(cfg.Relayer),
				logger.Init(cfg),
			)
			res, err := relayer.SubmitSignature(cmd.Context(), id, sig)
			if err != nil {
				return fmt.Errorf("relay failed after %d attempts (%s): %w", res.Attempts, res.Outcome, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vote delivered, oracle=%s confirmed=%t attempts=%d\n", res.Oracle.Hex(), res.Confirmed, res.Attempts)
			return nil
		},
	}

	cmd.Flags().StringVar(&oracle, "oracle", "", "Vote as this oracle against the local node state")
	cmd.Flags().StringVar(&signature, "signature", "", "65-byte oracle signature over the submission id (hex)")
	cmd.Flags().StringVar(&node, "node", "", "Node query server URL (default: localhost on the configured port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout when relaying")
	return cmd
}
