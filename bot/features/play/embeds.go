package play

import (
	"fmt"
	"strings"

	"scratcher/bot/common"
	"scratcher/models"

	"github.com/bwmarrin/discordgo"
)

// BuildGamesEmbed lists the playable game configs
func BuildGamesEmbed(games []*models.GameConfig) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎟️ Scratch Cards",
		Color: common.ColorPrimary,
	}

	if len(games) == 0 {
		embed.Description = "No cards are on sale right now."
		return embed
	}

	for _, g := range games {
		value := fmt.Sprintf("Price: **%s**\nTop prize: **%s**", common.FormatMoney(g.Price), common.FormatMoney(g.MaxPrize))
		if g.Description != "" {
			value = g.Description + "\n" + value
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fmt.Sprintf("#%d %s", g.ID, g.Name),
			Value:  value,
			Inline: true,
		})
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Play with /play game:<id>"}
	return embed
}

// RenderGrid lays out card cells in rows of three, hidden behind spoilers
func RenderGrid(grid []string) string {
	var b strings.Builder
	for i, cell := range grid {
		if i > 0 {
			if i%3 == 0 {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString("||" + cell + "||")
	}
	return b.String()
}

// BuildPlayEmbed shows a scratched card and what it paid
func BuildPlayEmbed(result *models.PlayResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎟️ Card #%d", result.Play.ID),
		Description: RenderGrid(result.Outcome.Grid),
		Color:       common.ColorDanger,
	}

	if result.Outcome.IsWinner {
		embed.Color = common.ColorSuccess
		line := fmt.Sprintf("🎉 **You won %s!**", common.FormatMoney(result.Outcome.Prize))
		if wc := result.Outcome.WinningCombination; wc != nil {
			line += fmt.Sprintf(" Three %s", wc.Symbol)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Result", Value: line})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Result", Value: "😔 No luck this time."})
	}

	stake := common.FormatMoney(result.Play.Stake)
	if result.Play.FreePlay {
		stake = "Free game"
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Stake", Value: stake, Inline: true})

	if result.Wallet != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Wallet",
			Value:  fmt.Sprintf("%s + %s bonus", common.FormatMoney(result.Wallet.Balance), common.FormatMoney(result.Wallet.BonusBalance)),
			Inline: true,
		})
	}

	var extras []string
	if result.LoyaltyPointsEarned > 0 {
		extras = append(extras, fmt.Sprintf("⭐ +%s loyalty points", common.FormatPoints(result.LoyaltyPointsEarned)))
	}
	for _, m := range result.CompletedMissions {
		extras = append(extras, fmt.Sprintf("🎯 Mission complete: **%s**", m.Name))
	}
	for _, b := range result.LevelUpBonuses {
		extras = append(extras, fmt.Sprintf("🏅 Level up! Bonus #%d: %d free games", b.ID, b.FreeGames))
	}
	if len(extras) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Progress", Value: strings.Join(extras, "\n")})
	}

	return embed
}

// BuildHistoryEmbed lists recent plays
func BuildHistoryEmbed(plays []*models.Play) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📜 Recent Cards",
		Color: common.ColorPrimary,
	}

	if len(plays) == 0 {
		embed.Description = "You haven't played yet."
		return embed
	}

	lines := make([]string, 0, len(plays))
	for _, p := range plays {
		result := "lost"
		if p.Prize.IsPositive() {
			result = "won " + common.FormatMoney(p.Prize)
		}
		stake := common.FormatMoney(p.Stake)
		if p.FreePlay {
			stake = "free"
		}
		lines = append(lines, fmt.Sprintf("`#%d` game %d, %s, %s %s",
			p.ID, p.ConfigID, stake, result, common.FormatDiscordTimestamp(p.PlayedAt, "R")))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}
