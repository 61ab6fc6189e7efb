package rewards

import (
	"context"

	"scratcher/bot/common"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Feature handles /daily, /bonuses, /missions and /claim
type Feature struct {
	progressionService service.ProgressionService
	accountService     service.AccountService
}

// New creates a new rewards feature instance
func New(progressionService service.ProgressionService, accountService service.AccountService) *Feature {
	return &Feature{
		progressionService: progressionService,
		accountService:     accountService,
	}
}

// HandleDaily grants the day's bonus and missions
func (f *Feature) HandleDaily(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accountID, err := common.AccountID(i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	result, err := f.accountService.Login(ctx, accountID)
	if err != nil {
		log.WithError(err).Errorf("Error granting daily rewards to %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildDailyEmbed(result), true)
}

// HandleBonuses lists the caller's bonuses
func (f *Feature) HandleBonuses(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := common.OptionMap(i.ApplicationCommandData().Options)

	activeOnly := true
	if opt, ok := options["all"]; ok {
		activeOnly = !opt.BoolValue()
	}

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	bonuses, err := f.progressionService.ListBonuses(ctx, accountID, activeOnly)
	if err != nil {
		log.WithError(err).Errorf("Error listing bonuses for %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildBonusesEmbed(bonuses), true)
}

// HandleMissions lists today's missions
func (f *Feature) HandleMissions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	missions, err := f.progressionService.ListMissions(ctx, accountID)
	if err != nil {
		log.WithError(err).Errorf("Error listing missions for %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildMissionsEmbed(missions), true)
}

// HandleClaim routes /claim bonus and /claim mission
func (f *Feature) HandleClaim(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		common.RespondWithError(s, i, "Please specify a subcommand: bonus or mission")
		return
	}

	sub := options[0]
	idOpt, ok := common.OptionMap(sub.Options)["id"]
	if !ok {
		common.RespondWithError(s, i, "Please provide an id.")
		return
	}

	switch sub.Name {
	case "bonus":
		f.claimBonus(s, i, idOpt.IntValue())
	case "mission":
		f.claimMission(s, i, idOpt.IntValue())
	default:
		common.RespondWithError(s, i, "Unknown subcommand")
	}
}

func (f *Feature) claimBonus(s *discordgo.Session, i *discordgo.InteractionCreate, bonusID int64) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	bonus, wallet, err := f.progressionService.ClaimBonus(ctx, accountID, bonusID)
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"bonusID":   bonusID,
			"error":     err,
		}).Warn("Bonus claim rejected")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildBonusClaimEmbed(bonus, wallet), true)
}

func (f *Feature) claimMission(s *discordgo.Session, i *discordgo.InteractionCreate, missionID int64) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	claim, err := f.progressionService.ClaimMission(ctx, accountID, missionID)
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"missionID": missionID,
			"error":     err,
		}).Warn("Mission claim rejected")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildMissionClaimEmbed(claim), true)
}
