package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/pushchain/push-bridge-core/bridgeCore/aggregator"
	"github.com/pushchain/push-bridge-core/bridgeCore/core"
	"github.com/pushchain/push-bridge-core/bridgeCore/types"
)

func assetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Confirm and deploy wrapped assets",
	}
	cmd.AddCommand(assetsConfirmCmd(), assetsDeployCmd())
	return cmd
}

func assetsConfirmCmd() *cobra.Command {
	var (
		oracle   string
		token    string
		chainID  uint64
		name     string
		symbol   string
		decimals uint8
	)

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Vote as an oracle for registering a native token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddress(oracle)
			if err != nil {
				return err
			}
			raw, err := hexutil.Decode(token)
			if err != nil {
				return fmt.Errorf("invalid token: %w", err)
			}
			meta := aggregator.AssetMetadata{
				Token:    raw,
				ChainID:  chainID,
				Name:     name,
				Symbol:   symbol,
				Decimals: decimals,
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				deployID, confirmed, err := c.Aggregator().ConfirmNewAsset(ctx, addr, meta)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deploy_id=%s confirmed=%t\n", deployID.Hex(), confirmed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&oracle, "oracle", "", "Vote as this oracle")
	cmd.Flags().StringVar(&token, "token", "", "Native token address on its chain (hex)")
	cmd.Flags().Uint64Var(&chainID, "chain-id", 0, "Native chain id of the token")
	cmd.Flags().StringVar(&name, "name", "", "Wrapped token name")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Wrapped token symbol")
	cmd.Flags().Uint8Var(&decimals, "decimals", 18, "Wrapped token decimals")
	cmd.MarkFlagRequired("oracle")
	cmd.MarkFlagRequired("token")
	cmd.MarkFlagRequired("chain-id")
	return cmd
}

func assetsDeployCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "deploy [deploy-id] [wrapped-token]",
		Short: "Bind the wrapped token of a confirmed asset registration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := parseAddress(from)
			if err != nil {
				return err
			}
			deployID, err := parseHash(args[0])
			if err != nil {
				return err
			}
			wrapped, err := hexutil.Decode(args[1])
			if err != nil {
				return fmt.Errorf("invalid wrapped token: %w", err)
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				debridgeID, err := c.Aggregator().DeployAsset(ctx, caller, deployID, wrapped)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "debridge_id=%s\n", debridgeID.Hex())
				return nil
			})
		},
	}

	fromFlag(cmd, &from)
	return cmd
}

func escrowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Inspect and fund the local escrow book",
	}
	cmd.AddCommand(escrowDepositCmd(), escrowBalanceCmd())
	return cmd
}

func escrowDepositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit [token] [account] [amount]",
		Short: "Credit an account with an amount of a token",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, account, err := decodeTokenAccount(args[0], args[1])
			if err != nil {
				return err
			}
			amount, err := types.ParseAmount(args[2])
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				if err := c.Book().Deposit(ctx, token, account, amount); err != nil {
					return err
				}
				balance, err := c.Book().Balance(ctx, token, account)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "balance=%s\n", balance)
				return nil
			})
		},
	}
}

func escrowBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance [token] [account]",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, account, err := decodeTokenAccount(args[0], args[1])
			if err != nil {
				return err
			}
			return withCoordinator(cmd, func(ctx context.Context, c *core.Coordinator) error {
				balance, err := c.Book().Balance(ctx, token, account)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "balance=%s\n", balance)
				return nil
			})
		},
	}
}

func decodeTokenAccount(token, account string) ([]byte, []byte, error) {
	t, err := hexutil.Decode(token)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid token: %w", err)
	}
	a, err := hexutil.Decode(account)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid account: %w", err)
	}
	return t, a, nil
}
