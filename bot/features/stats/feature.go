package stats

import (
	"context"

	"scratcher/bot/common"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles /winners, /stats and /summary
type Feature struct {
	statsService   service.StatsService
	accountService service.AccountService
}

// New creates a new stats feature instance
func New(statsService service.StatsService, accountService service.AccountService) *Feature {
	return &Feature{
		statsService:   statsService,
		accountService: accountService,
	}
}

// HandleWinners posts the last day's winners with masked names
func (f *Feature) HandleWinners(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	if err := common.DeferResponse(s, i, false); err != nil {
		log.WithError(err).Error("Error deferring winners response")
		return
	}

	winners, err := f.statsService.WinnersFeed(ctx, service.MaxWinnersFeed)
	if err != nil {
		log.WithError(err).Error("Error loading winners feed")
		common.FollowUpWithError(s, i, common.ErrorMessage(err))
		return
	}

	nameOf := func(accountID int64) string {
		return common.GetDisplayNameInt64(s, i.GuildID, accountID)
	}
	common.FollowUpWithEmbed(s, i, BuildWinnersEmbed(winners, nameOf), false)
}

// HandleStats posts the platform counters
func (f *Feature) HandleStats(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	stats, err := f.statsService.PublicStats(ctx)
	if err != nil {
		log.WithError(err).Error("Error loading public stats")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildStatsEmbed(stats), false)
}

// HandleSummary shows the caller's month so far
func (f *Feature) HandleSummary(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	summary, err := f.statsService.MonthlySummary(ctx, accountID)
	if err != nil {
		log.WithError(err).Errorf("Error building monthly summary for %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildSummaryEmbed(summary), true)
}
