package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/pushchain/push-bridge-core/bridgeCore/core"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	raw, err := hexutil.Decode(s)
	if err != nil || len(raw) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%q is not a 32-byte hex id", s)
	}
	return common.BytesToHash(raw), nil
}

func parseHashes(args []string) ([]common.Hash, error) {
	ids := make([]common.Hash, 0, len(args))
	for _, arg := range args {
		id, err := parseHash(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// withCoordinator runs fn against the local node state.
func withCoordinator(cmd *cobra.Command, fn func(ctx context.Context, c *core.Coordinator) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := openCoordinator(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

func fromFlag(cmd *cobra.Command, from *string) {
	cmd.Flags().StringVar(from, "from", "", "Caller address")
	cmd.MarkFlagRequired("from")
}

func oraclesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oracles",
		Short: "Manage the oracle registry",
	}
	cmd.AddCommand(oraclesAddCmd(), oraclesUpdateCmd(), oraclesSetAdminCmd(), oraclesListCmd())
	return cmd
}

func oraclesAddCmd() *cobra.Command {
	var (
		from     string
		required bool
	)

	cmd := &cobra.Command{
		Use:   "add [address...]",
		Short: "Register oracles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			ids := make([]common.Address, 0, len(args))
			flags := make([]bool, 0, len(args))
			for _, arg := range args {
				id, err := parseAddress(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				flags = append(flags, required)
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				return c.Registry().AddOracles(ctx, caller, ids, flags)
			})
		},
	}

	fromFlag(cmd, &from)
	cmd.Flags().BoolVar(&required, "required", false, "Mark the oracles as required")
	return cmd
}

func oraclesUpdateCmd() *cobra.Command {
	var (
		from     string
		valid    bool
		required bool
	)

	cmd := &cobra.Command{
		Use:   "update [address]",
		Short: "Change the valid and required flags of an oracle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			id, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				return c.Registry().UpdateOracle(ctx, caller, id, valid, required)
			})
		},
	}

	fromFlag(cmd, &from)
	cmd.Flags().BoolVar(&valid, "valid", true, "Oracle may vote")
	cmd.Flags().BoolVar(&required, "required", false, "Oracle must be among the voters")
	return cmd
}

func oraclesSetAdminCmd() *cobra.Command {
	var (
		from    string
		asOwner bool
	)

	cmd := &cobra.Command{
		Use:   "set-admin [oracle] [new-admin]",
		Short: "Hand over the delegate admin of an oracle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			id, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			newAdmin, err := parseAddress(args[1])
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				if asOwner {
					return c.Registry().UpdateOracleAdminByOwner(ctx, caller, id, newAdmin)
				}
				return c.Registry().UpdateOracleAdmin(ctx, caller, id, newAdmin)
			})
		},
	}

	fromFlag(cmd, &from)
	cmd.Flags().BoolVar(&asOwner, "owner", false, "Act as registry admin instead of the oracle's delegate admin")
	return cmd
}

func oraclesListCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered oracles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				oracles, err := c.ListOracles(ctx)
				if err != nil {
					return err
				}
				return printOutput(oracles, outputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", OutputFormatYAML, "Output format (yaml|json)")
	return cmd
}

func paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Change the quorum policy",
	}
	cmd.AddCommand(
		paramsSetCmd("set-min", "Set the minimum confirmations", func(ctx context.Context, c *core.Coordinator, from common.Address, n uint32) error {
			return c.Registry().SetMinConfirmations(ctx, from, n)
		}),
		paramsSetCmd("set-threshold", "Set the confirmations per window that trigger the excess tier", func(ctx context.Context, c *core.Coordinator, from common.Address, n uint32) error {
			return c.Registry().SetThreshold(ctx, from, n)
		}),
		paramsSetCmd("set-excess", "Set the excess confirmations", func(ctx context.Context, c *core.Coordinator, from common.Address, n uint32) error {
			return c.Registry().SetExcessConfirmations(ctx, from, n)
		}),
	)
	return cmd
}

func paramsSetCmd(use, short string, apply func(ctx context.Context, c *core.Coordinator, from common.Address, n uint32) error) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   use + " [value]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			n, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[0], err)
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				return apply(ctx, c, caller, uint32(n))
			})
		},
	}

	fromFlag(cmd, &from)
	return cmd
}

func submissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Block submissions and set amount thresholds",
	}
	cmd.AddCommand(blockCmd("block", true), blockCmd("unblock", false), amountThresholdCmd())
	return cmd
}

func blockCmd(use string, blocked bool) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   use + " [submission-id...]",
		Short: fmt.Sprintf("Mark submissions as blocked=%t", blocked),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			ids, err := parseHashes(args)
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				return c.Gate().BlockSubmissions(ctx, caller, ids, blocked)
			})
		},
	}

	fromFlag(cmd, &from)
	return cmd
}

func amountThresholdCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "set-amount-threshold [debridge-id] [amount]",
		Short: "Require excess confirmations for transfers of at least amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			debridgeID, err := parseHash(args[0])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				return c.Gate().SetAmountThreshold(ctx, caller, debridgeID, amount)
			})
		},
	}

	fromFlag(cmd, &from)
	return cmd
}
