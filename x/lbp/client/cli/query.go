package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/lbp-dex/x/lbp/types"
)

// GetQueryCmd returns the cli query commands for the lbp module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "lbp",
		Short:                      "Querying commands for the lbp module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryPools(),
		CmdQueryWeights(),
		CmdQuerySpotPrice(),
		CmdQueryHistory(),
		CmdQueryCandles(),
		CmdQueryProfiles(),
	)

	return cmd
}

// CmdQueryPool returns the command to query a pool
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Query a pool by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Pool query for ID: %s requires running node connection\n", args[0])
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools/{pool_id}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPools returns the command to list pools
func CmdQueryPools() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Query all pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pools query requires running node connection")
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryWeights returns the command to query current pool weights
func CmdQueryWeights() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weights [pool-id]",
		Short: "Query the current normalized weights of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Weights query for pool: %s requires running node connection\n", args[0])
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools/{pool_id}/weights")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQuerySpotPrice returns the command to query the live spot price
func CmdQuerySpotPrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spot-price [pool-id] [token-in] [token-out]",
		Short: "Query the spot price of token-out in units of token-in",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Spot price query requires running node connection")
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools/{pool_id}/spot-price?token_in=...&token_out=...")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryHistory returns the command to query price history
func CmdQueryHistory() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [pool-id] [token-in] [token-out]",
		Short: "Query recorded price observations for a pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("History query requires running node connection")
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools/{pool_id}/history?token_in=...&token_out=...")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryCandles returns the command to query OHLC candles
func CmdQueryCandles() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candles [pool-id] [token-in] [token-out] [interval]",
		Short: "Query OHLC candles for a pair",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Candle query requires running node connection")
			fmt.Println("Use REST API: GET /lbpdex/lbp/v1/pools/{pool_id}/candles?interval=1m")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryProfiles returns the command to show the supported profiles
func CmdQueryProfiles() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Show the supported pool profiles and their limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := []map[string]string{
				{
					"profile":    types.ProfileGeneral,
					"tokens":     "2-4",
					"max_weight": types.MaxWeightGeneral.String(),
					"min_weight": types.MinWeight.String(),
				},
				{
					"profile":    types.ProfileBootstrap,
					"tokens":     "2",
					"max_weight": types.MaxWeightBootstrap.String(),
					"min_weight": types.MinWeight.String(),
				},
			}

			output, _ := json.MarshalIndent(profiles, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
