package bot

import (
	"fmt"

	"scratcher/models"

	"github.com/bwmarrin/discordgo"
)

func minValue(v float64) *float64 {
	return &v
}

// Commands lists every slash command the bot answers
func Commands() []*discordgo.ApplicationCommand {
	kindChoices := []*discordgo.ApplicationCommandOptionChoice{}
	for _, kind := range []models.TransactionKind{
		models.TransactionKindDeposit,
		models.TransactionKindWithdrawal,
		models.TransactionKindStake,
		models.TransactionKindPrize,
		models.TransactionKindBonusCredit,
	} {
		kindChoices = append(kindChoices, &discordgo.ApplicationCommandOptionChoice{Name: string(kind), Value: string(kind)})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "games",
			Description: "List the scratch cards on sale",
		},
		{
			Name:        "play",
			Description: "Buy and scratch a card",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "game",
					Description: "Game id from /games",
					Required:    true,
					MinValue:    minValue(1),
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "free",
					Description: "Use a free game from your bonuses",
					Required:    false,
				},
			},
		},
		{
			Name:        "history",
			Description: "Show your latest cards",
		},
		{
			Name:        "balance",
			Description: "Check your wallet",
		},
		{
			Name:        "deposit",
			Description: "Add funds via PIX",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "amount",
					Description: "Amount to deposit",
					Required:    true,
					MinValue:    minValue(0.01),
				},
			},
		},
		{
			Name:        "withdraw",
			Description: "Cash out to a PIX key",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionNumber,
					Name:        "amount",
					Description: "Amount to withdraw",
					Required:    true,
					MinValue:    minValue(0.01),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "pix_key",
					Description: "PIX key to receive the payout",
					Required:    true,
				},
			},
		},
		{
			Name:        "transactions",
			Description: "List your transactions",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "Only show this kind",
					Required:    false,
					Choices:     kindChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
					MinValue:    minValue(1),
				},
			},
		},
		{
			Name:        "daily",
			Description: "Collect your daily bonus and missions",
		},
		{
			Name:        "bonuses",
			Description: "List your bonuses",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "all",
					Description: "Include claimed and expired bonuses",
					Required:    false,
				},
			},
		},
		{
			Name:        "missions",
			Description: "Show today's missions",
		},
		{
			Name:        "winners",
			Description: "Show the last day's winners",
		},
		{
			Name:        "stats",
			Description: "Show today's numbers and the week's biggest prize",
		},
		{
			Name:        "summary",
			Description: "Show your deposits, withdrawals and results this month",
		},
		{
			Name:        "claim",
			Description: "Claim a bonus or a mission reward",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "bonus",
					Description: "Move a bonus into your bonus balance",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Bonus id from /bonuses",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "mission",
					Description: "Collect a completed mission's reward",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Mission id from /missions",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range Commands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}
	return nil
}
