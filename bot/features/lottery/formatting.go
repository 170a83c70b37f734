package lottery

import (
	"fmt"
	"strings"

	"lotto/bot/common"
	"lotto/models"
	"lotto/service"
)

// FormatPlayResult renders a play result as a chat message
func FormatPlayResult(result *models.PlayResult, currencyName string) string {
	if !result.Success {
		return "❌ " + result.Message
	}

	lines := []string{
		"🎰 " + result.Message,
		fmt.Sprintf("▸ Staked: %s %s", common.FormatBalance(result.Bet), currencyName),
		fmt.Sprintf("▸ Paid out: %s %s", common.FormatBalance(result.Payout), currencyName),
		fmt.Sprintf("💰 Balance: %s", common.FormatBalance(result.ResultingBalance)),
		fmt.Sprintf("📅 Attempts left today: %d", result.RemainingAttempts),
	}
	return strings.Join(lines, "\n")
}

// FormatHistory renders recent plays, newest first
func FormatHistory(records []*models.PlayRecord, currencyName string) string {
	if len(records) == 0 {
		return "You have not played yet."
	}

	var b strings.Builder
	b.WriteString("📜 **Recent plays**")
	for _, r := range records {
		fmt.Fprintf(&b, "\n%s `%s` staked %s, paid %s %s",
			common.FormatDiscordTimestamp(r.CreatedAt, "R"),
			r.Outcome,
			common.FormatBalance(r.Bet),
			common.FormatBalance(r.Payout),
			currencyName,
		)
		if r.TransferTarget != nil {
			fmt.Fprintf(&b, " → [%s]", service.MaskUserID(*r.TransferTarget))
		}
	}
	return b.String()
}
