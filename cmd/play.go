package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"lotto/config"
	"lotto/events"
	"lotto/models"
	"lotto/service"
)

// withLottery opens the configured store and hands a ready engine to fn
func withLottery(ctx context.Context, fn func(st *store, lottery service.LotteryService) error) error {
	cfg := config.Get()
	st, err := openStore(ctx, cfg, events.NewBus())
	if err != nil {
		return err
	}
	defer st.close()

	lottery, err := newLotteryService(cfg, st.uowFactory)
	if err != nil {
		return err
	}
	return fn(st, lottery)
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <user-id>",
		Short: "Play the lottery once as a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLottery(cmd.Context(), func(_ *store, lottery service.LotteryService) error {
				result := lottery.Play(cmd.Context(), args[0])
				renderPlayResult(cmd.OutOrStdout(), result, config.Get().CurrencyName)
				if !result.Success {
					return fmt.Errorf("play failed: %s", result.Reason)
				}
				return nil
			})
		},
	}
}

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the rules of the configured outcome table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lottery, err := newLotteryService(config.Get(), nil)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), lottery.Rules())
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history <user-id>",
		Short: "List a user's recent plays",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLottery(cmd.Context(), func(_ *store, lottery service.LotteryService) error {
				records, err := lottery.History(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				renderHistory(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", service.DefaultHistoryLimit, "number of plays to show")

	return historyCmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <user-id> <balance>",
		Short: "Create an account with an opening balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || balance < 0 {
				return fmt.Errorf("balance must be a non-negative integer, got %q", args[1])
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return withLottery(ctx, func(st *store, _ service.LotteryService) error {
				if err := st.accounts.Create(ctx, args[0], balance); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s with balance %d.", args[0], balance))
				return nil
			})
		},
	}
}

func renderPlayResult(w io.Writer, result *models.PlayResult, currencyName string) {
	if !result.Success {
		printError(w, "❌ "+result.Message)
		return
	}

	switch result.Outcome {
	case models.OutcomeLoss, models.OutcomeTransfer:
		printWarn(w, "🎰 "+result.Message)
	default:
		printSuccess(w, "🎰 "+result.Message)
	}
	printInfo(w, fmt.Sprintf("▸ Staked:   %d %s", result.Bet, currencyName))
	printInfo(w, fmt.Sprintf("▸ Paid out: %d %s", result.Payout, currencyName))
	printInfo(w, fmt.Sprintf("💰 Balance: %d", result.ResultingBalance))
	printInfo(w, fmt.Sprintf("📅 Attempts left today: %d", result.RemainingAttempts))
}

func renderHistory(w io.Writer, records []*models.PlayRecord) {
	if len(records) == 0 {
		printWarn(w, "No plays yet.")
		return
	}

	printHeader(w, "%-20s %-16s %5s %12s %12s %12s", "time", "outcome", "roll", "bet", "payout", "balance")
	for _, r := range records {
		line := fmt.Sprintf("%-20s %-16s %5d %12d %12d %12d",
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"), r.Outcome, r.Roll, r.Bet, r.Payout, r.BalanceAfter)
		if r.TransferTarget != nil {
			line += " → " + service.MaskUserID(*r.TransferTarget)
		}
		printInfo(w, line)
	}
}
