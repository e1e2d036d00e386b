package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/lbp-dex/x/lbp/types"
)

const (
	flagPoolID       = "pool-id"
	flagStartTime    = "start-time"
	flagEndTime      = "end-time"
	flagDisabled     = "disabled"
	flagMinAmountOut = "min-amount-out"
)

// GetTxCmd returns the transaction commands for the lbp module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "lbp",
		Short:                      "LBP module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdInitializePool(),
		CmdSetSwapFee(),
		CmdSetSwapEnabled(),
		CmdUpdateWeights(),
		CmdSwap(),
	)

	return cmd
}

// CmdInitializePool returns the command to create a pool
func CmdInitializePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init-pool [profile] [denoms] [balances] [weights] [swap-fee]",
		Short: "Initialize a liquidity bootstrapping pool",
		Long: `Initialize a pool. Denoms, balances and weights are comma separated
and index aligned.

Examples:
  lbpd tx lbp init-pool bootstrap ulaunch,ureserve 1000000000000,1000000000000 0.96,0.04 0 --from alice
  lbpd tx lbp init-pool general uatom,uosmo 5000000000,5000000000 0.5,0.5 0.003 --pool-id atom-osmo --from alice`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			profile := strings.ToLower(args[0])
			if profile != types.ProfileGeneral && profile != types.ProfileBootstrap {
				return fmt.Errorf("invalid profile: %s (use 'general' or 'bootstrap')", profile)
			}

			denoms := strings.Split(args[1], ",")
			balances := strings.Split(args[2], ",")
			weights := strings.Split(args[3], ",")
			if len(balances) != len(denoms) || len(weights) != len(denoms) {
				return fmt.Errorf("denoms, balances and weights must have the same length")
			}

			poolID, _ := cmd.Flags().GetString(flagPoolID)
			startTime, _ := cmd.Flags().GetInt64(flagStartTime)
			endTime, _ := cmd.Flags().GetInt64(flagEndTime)
			disabled, _ := cmd.Flags().GetBool(flagDisabled)

			msg := &types.MsgInitializePool{
				Creator:     clientCtx.GetFromAddress().String(),
				PoolID:      poolID,
				Profile:     profile,
				Denoms:      denoms,
				Balances:    balances,
				Weights:     weights,
				SwapFee:     args[4],
				SwapEnabled: !disabled,
				StartTime:   startTime,
				EndTime:     endTime,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(flagPoolID, "", "Explicit pool ID (default: next sequential ID)")
	cmd.Flags().Int64(flagStartTime, 0, "Optional glide window start (unix seconds)")
	cmd.Flags().Int64(flagEndTime, 0, "Optional glide window end (unix seconds)")
	cmd.Flags().Bool(flagDisabled, false, "Create the pool with swaps disabled")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetSwapFee returns the command to update a pool's swap fee
func CmdSetSwapFee() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-swap-fee [pool-id] [fee]",
		Short: "Update the swap fee of a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetSwapFee{
				Owner:   clientCtx.GetFromAddress().String(),
				PoolID:  args[0],
				SwapFee: args[1],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetSwapEnabled returns the command to toggle swapping on a pool
func CmdSetSwapEnabled() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-swap-enabled [pool-id] [true|false]",
		Short: "Enable or disable swapping on a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			enabled, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid enabled flag: %v", err)
			}

			msg := &types.MsgSetSwapEnabled{
				Owner:   clientCtx.GetFromAddress().String(),
				PoolID:  args[0],
				Enabled: enabled,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdUpdateWeights returns the command to schedule a weight glide
func CmdUpdateWeights() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update-weights [pool-id] [start-time] [end-time] [end-weights]",
		Short: "Schedule a gradual weight change",
		Long: `Schedule a linear weight glide from the pool's current weights to the
given end weights over [start-time, end-time].

Example:
  lbpd tx lbp update-weights pool-1 1700003600 1700090000 0.5,0.5 --from alice`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			startTime, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid start time: %v", err)
			}
			endTime, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid end time: %v", err)
			}

			msg := &types.MsgUpdateWeightsGradually{
				Owner:      clientCtx.GetFromAddress().String(),
				PoolID:     args[0],
				StartTime:  startTime,
				EndTime:    endTime,
				EndWeights: strings.Split(args[3], ","),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSwap returns the command to swap against a pool
func CmdSwap() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap [pool-id] [token-in] [token-out] [amount-in]",
		Short: "Swap an exact input amount against a pool",
		Long: `Swap an exact amount of token-in for token-out.

Examples:
  lbpd tx lbp swap pool-1 ureserve ulaunch 1000000 --from bob
  lbpd tx lbp swap pool-1 ureserve ulaunch 1000000 --min-amount-out 950000 --from bob`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			minAmountOut, _ := cmd.Flags().GetString(flagMinAmountOut)

			msg := &types.MsgSwap{
				Trader:       clientCtx.GetFromAddress().String(),
				PoolID:       args[0],
				TokenIn:      args[1],
				TokenOut:     args[2],
				AmountIn:     args[3],
				MinAmountOut: minAmountOut,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(flagMinAmountOut, "", "Reject the swap if the output falls below this amount")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
