package wallet

import (
	"fmt"
	"strings"

	"scratcher/bot/common"
	"scratcher/models"

	"github.com/bwmarrin/discordgo"
)

var kindLabels = map[models.TransactionKind]string{
	models.TransactionKindStake:       "🎟️ Stake",
	models.TransactionKindPrize:       "🎉 Prize",
	models.TransactionKindDeposit:     "📥 Deposit",
	models.TransactionKindWithdrawal:  "📤 Withdrawal",
	models.TransactionKindBonusCredit: "🎁 Bonus",
}

var statusLabels = map[models.TransactionStatus]string{
	models.TransactionStatusPending:   "⏳ pending",
	models.TransactionStatusCompleted: "✅ completed",
	models.TransactionStatusFailed:    "❌ failed",
	models.TransactionStatusCancelled: "🚫 cancelled",
}

// BuildBalanceEmbed shows both balances and lifetime totals
func BuildBalanceEmbed(w *models.Wallet) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "💰 Wallet",
		Color: common.ColorGold,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Balance", Value: common.FormatMoney(w.Balance), Inline: true},
			{Name: "Bonus", Value: common.FormatMoney(w.BonusBalance), Inline: true},
			{Name: "Spendable", Value: "**" + common.FormatMoney(w.Spendable()) + "**", Inline: true},
			{Name: "Deposited", Value: common.FormatMoney(w.TotalDeposited), Inline: true},
			{Name: "Withdrawn", Value: common.FormatMoney(w.TotalWithdrawn), Inline: true},
		},
	}
}

// BuildRequestEmbed confirms a deposit or withdrawal request
func BuildRequestEmbed(tx *models.Transaction) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s requested", kindLabels[tx.Kind]),
		Color: common.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Amount", Value: common.FormatMoney(tx.Amount), Inline: true},
			{Name: "Status", Value: statusLabel(tx.Status), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Transaction #%d", tx.ID)},
	}
	if tx.ExternalRef != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Reference", Value: "`" + *tx.ExternalRef + "`"})
	}
	if tx.Status == models.TransactionStatusFailed {
		embed.Color = common.ColorDanger
		embed.Description = "The payment processor refused this request."
	}
	return embed
}

// BuildTransactionsEmbed lists journal entries newest first
func BuildTransactionsEmbed(txs []*models.Transaction) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📒 Transactions",
		Color: common.ColorPrimary,
	}

	if len(txs) == 0 {
		embed.Description = "No transactions found."
		return embed
	}

	lines := make([]string, 0, len(txs))
	for _, tx := range txs {
		lines = append(lines, fmt.Sprintf("`#%d` %s **%s** %s %s",
			tx.ID, kindLabels[tx.Kind], common.FormatMoney(tx.Amount), statusLabel(tx.Status),
			common.FormatDiscordTimestamp(tx.CreatedAt, "R")))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

func statusLabel(status models.TransactionStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return string(status)
}
