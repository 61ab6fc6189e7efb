package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Embed colors
const (
	ColorPrimary = 0x5865F2
	ColorSuccess = 0x57F287
	ColorWarning = 0xFEE75C
	ColorDanger  = 0xED4245
	ColorGold    = 0xF1C40F
)

// FormatMoney renders an amount as "R$ 1,234.56"
func FormatMoney(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	return fmt.Sprintf("%sR$ %s.%s", sign, groupThousands(whole), cents)
}

// groupThousands adds commas between groups of three digits
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var result strings.Builder
	for i, digit := range digits {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}
	return result.String()
}

// FormatPoints formats loyalty points with thousand separators
func FormatPoints(points int64) string {
	if points < 0 {
		return "-" + groupThousands(fmt.Sprintf("%d", -points))
	}
	return groupThousands(fmt.Sprintf("%d", points))
}

// FormatDiscordTimestamp formats a time as a Discord timestamp that displays in user's local timezone
// Format types: "t" = short time, "T" = long time, "d" = short date, "D" = long date,
// "f" = short date/time, "F" = long date/time, "R" = relative time
func FormatDiscordTimestamp(t time.Time, format string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), format)
}

// ProgressBar draws current/target as a ten-cell bar
func ProgressBar(current, target int) string {
	const width = 10
	if target <= 0 {
		return strings.Repeat("▱", width)
	}
	filled := current * width / target
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}
