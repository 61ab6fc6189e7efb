package rewards

import (
	"fmt"
	"strings"

	"scratcher/bot/common"
	"scratcher/models"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
)

var bonusLabels = map[models.BonusType]string{
	models.BonusTypeWelcome:       "👋 Welcome",
	models.BonusTypeDaily:         "📅 Daily",
	models.BonusTypeReload:        "🔄 Reload",
	models.BonusTypeLevelUp:       "🏅 Level up",
	models.BonusTypeMissionReward: "🎯 Mission reward",
}

// DescribeBonus summarizes what a bonus still holds
func DescribeBonus(b *models.Bonus) string {
	var parts []string
	if unclaimed := b.Unclaimed(); unclaimed.IsPositive() {
		parts = append(parts, common.FormatMoney(unclaimed)+" to claim")
	}
	if b.FreeGames == 1 {
		parts = append(parts, "1 free game")
	} else if b.FreeGames > 1 {
		parts = append(parts, fmt.Sprintf("%d free games", b.FreeGames))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing left")
	}
	return strings.Join(parts, " and ")
}

// BuildDailyEmbed shows what a login granted
func BuildDailyEmbed(result *service.LoginResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📅 Daily Rewards",
		Color: common.ColorSuccess,
	}

	if result.DailyBonus != nil {
		embed.Description = fmt.Sprintf("You received bonus #%d: %s. Expires %s.",
			result.DailyBonus.ID, DescribeBonus(result.DailyBonus),
			common.FormatDiscordTimestamp(result.DailyBonus.ExpiresAt, "R"))
	} else {
		embed.Color = common.ColorWarning
		embed.Description = "You already collected today's bonus. Come back tomorrow!"
	}

	if result.Account != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Loyalty",
			Value:  fmt.Sprintf("%s, %s points", strings.ToUpper(string(result.Account.LoyaltyLevel)), common.FormatPoints(result.Account.LoyaltyPoints)),
			Inline: true,
		})
	}
	if len(result.Missions) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Missions",
			Value:  fmt.Sprintf("%d missions today, see /missions", len(result.Missions)),
			Inline: true,
		})
	}
	return embed
}

// BuildBonusesEmbed lists bonuses with their remaining value
func BuildBonusesEmbed(bonuses []*models.Bonus) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎁 Bonuses",
		Color: common.ColorPrimary,
	}

	if len(bonuses) == 0 {
		embed.Description = "No bonuses right now. Try /daily."
		return embed
	}

	lines := make([]string, 0, len(bonuses))
	for _, b := range bonuses {
		line := fmt.Sprintf("`#%d` %s: %s", b.ID, bonusLabels[b.Type], DescribeBonus(b))
		if b.Status == models.BonusStatusActive {
			line += ", expires " + common.FormatDiscordTimestamp(b.ExpiresAt, "R")
		} else {
			line += fmt.Sprintf(" (%s)", b.Status)
		}
		lines = append(lines, line)
	}
	embed.Description = strings.Join(lines, "\n")
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Claim money with /claim bonus, spend free games with /play free:true"}
	return embed
}

// BuildBonusClaimEmbed confirms a bonus claim
func BuildBonusClaimEmbed(b *models.Bonus, w *models.Wallet) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("✅ Bonus #%d claimed", b.ID),
		Color:       common.ColorSuccess,
		Description: fmt.Sprintf("%s credited to your bonus balance.", common.FormatMoney(b.ClaimedAmount)),
	}
	if b.FreeGames > 0 {
		embed.Description += fmt.Sprintf(" %d free games remain.", b.FreeGames)
	}
	if w != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Bonus balance",
			Value: common.FormatMoney(w.BonusBalance),
		})
	}
	return embed
}

// BuildMissionsEmbed shows progress bars for each mission
func BuildMissionsEmbed(missions []*models.Mission) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🎯 Missions",
		Color: common.ColorPrimary,
	}

	if len(missions) == 0 {
		embed.Description = "No missions today. Try /daily."
		return embed
	}

	for _, m := range missions {
		status := ""
		switch m.Status {
		case models.MissionStatusCompleted:
			status = " ✅ claim with /claim mission"
		case models.MissionStatusClaimed:
			status = " 🏁 claimed"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s", m.ID, m.Name),
			Value: fmt.Sprintf("%s\n%s %d/%d%s\nReward: %s",
				m.Description, common.ProgressBar(m.Current, m.Target), m.Current, m.Target, status, describeReward(m)),
		})
	}
	return embed
}

// BuildMissionClaimEmbed confirms a mission reward
func BuildMissionClaimEmbed(claim *service.MissionClaim) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🏁 %s", claim.Mission.Name),
		Color: common.ColorSuccess,
	}

	var lines []string
	if claim.PointsAwarded > 0 {
		lines = append(lines, fmt.Sprintf("⭐ +%s loyalty points", common.FormatPoints(claim.PointsAwarded)))
	}
	if claim.RewardBonus != nil {
		lines = append(lines, fmt.Sprintf("🎁 Bonus #%d: %s", claim.RewardBonus.ID, DescribeBonus(claim.RewardBonus)))
	}
	for _, b := range claim.LevelUpBonuses {
		lines = append(lines, fmt.Sprintf("🏅 Level up! Bonus #%d: %s", b.ID, DescribeBonus(b)))
	}
	embed.Description = strings.Join(lines, "\n")
	return embed
}

func describeReward(m *models.Mission) string {
	switch m.RewardType {
	case models.MissionRewardPoints:
		return m.RewardValue.StringFixed(0) + " points"
	case models.MissionRewardFreeGames:
		return m.RewardValue.StringFixed(0) + " free games"
	case models.MissionRewardBonusMoney:
		return common.FormatMoney(m.RewardValue) + " bonus"
	}
	return string(m.RewardType)
}
