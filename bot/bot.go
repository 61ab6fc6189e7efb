package bot

import (
	"fmt"

	"scratcher/bot/features/play"
	"scratcher/bot/features/rewards"
	"scratcher/bot/features/stats"
	"scratcher/bot/features/wallet"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token   string
	GuildID string
}

// Services are the engine operations exposed as slash commands
type Services struct {
	Play        service.PlayService
	Wallet      service.WalletService
	Progression service.ProgressionService
	Account     service.AccountService
	Stats       service.StatsService
}

type Bot struct {
	config  Config
	session *discordgo.Session

	playFeature    *play.Feature
	walletFeature  *wallet.Feature
	rewardsFeature *rewards.Feature
	statsFeature   *stats.Feature
}

func New(config Config, services Services) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages

	bot := &Bot{
		config:         config,
		session:        dg,
		playFeature:    play.New(services.Play, services.Account),
		walletFeature:  wallet.New(services.Wallet, services.Account),
		rewardsFeature: rewards.New(services.Progression, services.Account),
		statsFeature:   stats.New(services.Stats, services.Account),
	}

	dg.AddHandler(bot.handleCommands)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	log.WithField("guildID", config.GuildID).Info("Discord bot connected")
	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "games":
		b.playFeature.HandleGames(s, i)
	case "play":
		b.playFeature.HandlePlay(s, i)
	case "history":
		b.playFeature.HandleHistory(s, i)
	case "balance":
		b.walletFeature.HandleBalance(s, i)
	case "deposit":
		b.walletFeature.HandleDeposit(s, i)
	case "withdraw":
		b.walletFeature.HandleWithdraw(s, i)
	case "transactions":
		b.walletFeature.HandleTransactions(s, i)
	case "daily":
		b.rewardsFeature.HandleDaily(s, i)
	case "bonuses":
		b.rewardsFeature.HandleBonuses(s, i)
	case "missions":
		b.rewardsFeature.HandleMissions(s, i)
	case "claim":
		b.rewardsFeature.HandleClaim(s, i)
	case "winners":
		b.statsFeature.HandleWinners(s, i)
	case "stats":
		b.statsFeature.HandleStats(s, i)
	case "summary":
		b.statsFeature.HandleSummary(s, i)
	}
}
