package output

import (
	"fmt"
	"strings"
)

// ItchBar renders a 1-10 itch level as a bar.
// Example: "██████░░░░ 6.0/10"
func ItchBar(level float64, width int) string {
	if width <= 0 {
		width = 10
	}
	filled := int((level / 10.0) * float64(width))
	filled = max(0, min(filled, width))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", ItchStyle(level).Render(bar), StyleMuted.Render(fmt.Sprintf("%.1f/10", level)))
}

// QuotaBar renders daily AI usage, e.g. "●●●○○ 3/5 used".
func QuotaBar(used, limit int) string {
	if limit <= 0 {
		return StyleMuted.Render("no limit")
	}
	used = max(0, min(used, limit))
	dots := strings.Repeat("●", used) + strings.Repeat("○", limit-used)

	style := StyleSuccess
	switch {
	case used >= limit:
		style = StyleError
	case limit-used == 1:
		style = StyleWarning
	}
	return fmt.Sprintf("%s %s", style.Render(dots), StyleMuted.Render(fmt.Sprintf("%d/%d used", used, limit)))
}

// TrendArrow returns a styled indicator for a difference in itch level.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// higherIsBetter tells which direction is an improvement.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
