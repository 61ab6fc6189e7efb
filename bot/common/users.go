package common

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// GetDisplayName returns the server-specific display name for a user
// Falls back to username if nickname is not set or if there's an error
func GetDisplayName(s *discordgo.Session, guildID, userID string) string {
	if s == nil {
		return ""
	}

	if guildID != "" {
		member, err := s.GuildMember(guildID, userID)
		if err == nil && member != nil {
			if member.Nick != "" {
				return member.Nick
			}
			if member.User != nil {
				if member.User.GlobalName != "" {
					return member.User.GlobalName
				}
				return member.User.Username
			}
		}
	}

	user, err := s.User(userID)
	if err == nil && user != nil {
		if user.GlobalName != "" {
			return user.GlobalName
		}
		return user.Username
	}

	return ""
}

// GetDisplayNameInt64 is a convenience wrapper that accepts int64 user IDs
func GetDisplayNameInt64(s *discordgo.Session, guildID string, userID int64) string {
	return GetDisplayName(s, guildID, strconv.FormatInt(userID, 10))
}

// MaskName hides most of a player's name for public feeds: "Maria Souza"
// becomes "Ma*** S***"
func MaskName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "Player***"
	}

	masked := prefix(parts[0], 2) + "***"
	if len(parts) > 1 {
		masked += " " + prefix(parts[len(parts)-1], 1) + "***"
	}
	return masked
}

func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
