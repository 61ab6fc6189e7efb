package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// AccountID returns the account of the user behind an interaction
func AccountID(i *discordgo.InteractionCreate) (int64, error) {
	var userID string
	switch {
	case i.Member != nil && i.Member.User != nil:
		userID = i.Member.User.ID
	case i.User != nil:
		userID = i.User.ID
	default:
		return 0, fmt.Errorf("interaction has no user")
	}

	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid discord user id %q: %w", userID, err)
	}
	return id, nil
}

// ErrorMessage turns a service error into something a player can act on
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientFunds):
		return "You don't have enough funds for that."
	case errors.Is(err, service.ErrNoFreePlayAvailable):
		return "You have no free games left."
	case errors.Is(err, service.ErrConfigNotFound):
		return "That game is not available."
	case errors.Is(err, service.ErrBonusNotFound):
		return "Bonus not found."
	case errors.Is(err, service.ErrBonusNotActive):
		return "That bonus has already been used."
	case errors.Is(err, service.ErrBonusExpired):
		return "That bonus has expired."
	case errors.Is(err, service.ErrNothingToClaim):
		return "That bonus has no money left to claim. Its free games are still playable."
	case errors.Is(err, service.ErrMissionNotFound):
		return "Mission not found."
	case errors.Is(err, service.ErrMissionNotCompleted):
		return "That mission is not completed yet."
	case errors.Is(err, service.ErrWithdrawalLimitExceeded):
		return "That would exceed your daily withdrawal limit."
	case errors.Is(err, service.ErrInvalidAmount):
		return "Invalid amount: " + err.Error()
	case errors.Is(err, service.ErrAccountNotFound):
		return "You don't have an account yet. Try /daily first."
	default:
		return "Something went wrong. Please try again."
	}
}

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// RespondWithEmbed sends an embed as an interaction response
func RespondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		log.WithError(err).Error("Error sending embed response")
	}
}

// FollowUpWithEmbed sends an embed as a follow-up to a deferred interaction
func FollowUpWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	if _, err := s.FollowupMessageCreate(i.Interaction, false, params); err != nil {
		log.WithError(err).Error("Error sending follow-up embed")
	}
}

// RespondWithError sends an ephemeral error message
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Error("Error sending error response")
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: "❌ " + message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.WithError(err).Error("Error sending follow-up error message")
	}
}

// OptionMap indexes slash command options by name
func OptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// EnsureAccount resolves the interaction's account, opening it on first use
func EnsureAccount(ctx context.Context, accounts service.AccountService, i *discordgo.InteractionCreate) (int64, error) {
	accountID, err := AccountID(i)
	if err != nil {
		return 0, err
	}
	if _, err := accounts.GetOrCreateAccount(ctx, accountID); err != nil {
		return 0, err
	}
	return accountID, nil
}
