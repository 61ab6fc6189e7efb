package stats

import (
	"fmt"
	"strings"

	"scratcher/bot/common"
	"scratcher/models"

	"github.com/bwmarrin/discordgo"
)

// BuildWinnersEmbed lists recent wins. nameOf resolves an account to a
// display name, which is masked before it is shown.
func BuildWinnersEmbed(winners []*models.WinnerEntry, nameOf func(accountID int64) string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🏆 Recent Winners",
		Color: common.ColorGold,
	}

	if len(winners) == 0 {
		embed.Description = "No winners in the last 24 hours. Yours could be the first!"
		return embed
	}

	var lines []string
	for i, w := range winners {
		medal := ""
		switch i {
		case 0:
			medal = "🥇"
		case 1:
			medal = "🥈"
		case 2:
			medal = "🥉"
		default:
			medal = fmt.Sprintf("%d.", i+1)
		}

		name := ""
		if nameOf != nil {
			name = nameOf(w.AccountID)
		}
		lines = append(lines, fmt.Sprintf("%s **%s** won **%s** on %s %s",
			medal, common.MaskName(name), common.FormatMoney(w.Prize), w.GameName,
			common.FormatDiscordTimestamp(w.PlayedAt, "R")))
	}

	embed.Description = strings.Join(lines, "\n")
	return embed
}

// BuildStatsEmbed shows the platform counters
func BuildStatsEmbed(stats *models.PublicStats) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "📊 Scratcher Stats",
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Players", Value: common.FormatPoints(stats.TotalPlayers), Inline: true},
			{Name: "Cards Today", Value: common.FormatPoints(stats.TodayGames), Inline: true},
			{Name: "Prizes Today", Value: common.FormatMoney(stats.TodayPrizes), Inline: true},
			{Name: "Biggest Prize This Week", Value: "**" + common.FormatMoney(stats.BiggestPrizeWeek) + "**"},
		},
	}
}

// BuildSummaryEmbed shows an account's month so far
func BuildSummaryEmbed(summary *models.MonthlySummary) *discordgo.MessageEmbed {
	net := summary.NetResult()
	color := common.ColorSuccess
	if net.IsNegative() {
		color = common.ColorDanger
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🗓️ Monthly Summary",
		Description: "Since " + common.FormatDiscordTimestamp(summary.Since, "D"),
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Deposits", Value: common.FormatMoney(summary.Deposits), Inline: true},
			{Name: "Withdrawals", Value: common.FormatMoney(summary.Withdrawals), Inline: true},
			{Name: "Spent on Cards", Value: common.FormatMoney(summary.GamesSpent), Inline: true},
			{Name: "Prizes Won", Value: common.FormatMoney(summary.PrizesWon), Inline: true},
			{Name: "Net Result", Value: "**" + common.FormatMoney(net) + "**", Inline: true},
		},
	}
	if summary.Wallet != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Balance %s, bonus %s",
				common.FormatMoney(summary.Wallet.Balance), common.FormatMoney(summary.Wallet.BonusBalance)),
		}
	}
	return embed
}
