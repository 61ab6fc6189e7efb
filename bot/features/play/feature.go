package play

import (
	"context"

	"scratcher/bot/common"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// recentPlaysShown caps the /history listing
const recentPlaysShown = 10

// Feature handles /play, /games and /history
type Feature struct {
	playService    service.PlayService
	accountService service.AccountService
}

// New creates a new play feature instance
func New(playService service.PlayService, accountService service.AccountService) *Feature {
	return &Feature{
		playService:    playService,
		accountService: accountService,
	}
}

// HandleGames lists the playable cards
func (f *Feature) HandleGames(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	games, err := f.playService.ListGames(ctx)
	if err != nil {
		log.WithError(err).Error("Error listing games")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildGamesEmbed(games), false)
}

// HandlePlay buys and scratches one card
func (f *Feature) HandlePlay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := common.OptionMap(i.ApplicationCommandData().Options)

	gameOpt, ok := options["game"]
	if !ok {
		common.RespondWithError(s, i, "Please choose a game. Use /games to see them.")
		return
	}
	useFreePlay := false
	if opt, ok := options["free"]; ok {
		useFreePlay = opt.BoolValue()
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Error deferring play response")
		return
	}

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		log.WithError(err).Error("Error resolving account for play")
		common.FollowUpWithError(s, i, common.ErrorMessage(err))
		return
	}

	result, err := f.playService.Play(ctx, accountID, gameOpt.IntValue(), useFreePlay)
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"configID":  gameOpt.IntValue(),
			"freePlay":  useFreePlay,
			"error":     err,
		}).Warn("Play rejected")
		common.FollowUpWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.FollowUpWithEmbed(s, i, BuildPlayEmbed(result), false)
}

// HandleHistory lists the caller's latest plays
func (f *Feature) HandleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	plays, err := f.playService.RecentPlays(ctx, accountID, recentPlaysShown)
	if err != nil {
		log.WithError(err).Error("Error listing recent plays")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildHistoryEmbed(plays), true)
}
