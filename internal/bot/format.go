package bot

import (
	"fmt"
	"strings"

	"gatekeeper-bot/internal/modules/audit"
	"gatekeeper-bot/internal/stats"
)

func formatSnapshot(snap stats.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("📊 *Approved join requests*\n\n")
	fmt.Fprintf(&sb, "Total approved: %d\n", snap.Total)
	fmt.Fprintf(&sb, "Today: %d\n", snap.Today)
	fmt.Fprintf(&sb, "This week: %d\n", snap.ThisWeek)
	fmt.Fprintf(&sb, "This month: %d\n\n", snap.ThisMonth)

	sb.WriteString("*Top users:*\n")
	for i, user := range snap.TopUsers {
		fmt.Fprintf(&sb, "%d. @%s: %d\n", i+1, user.Username, user.Count)
	}

	sb.WriteString("\n*Last 7 days:*\n")
	for _, day := range snap.Daily {
		fmt.Fprintf(&sb, "%s: %d\n", day.Date.Format("2006-01-02"), day.Count)
	}
	return sb.String()
}

func formatReport(period string, report stats.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗒 *Activity for the last %s*\n\n", period)
	fmt.Fprintf(&sb, "Total: %d\n", report.Total)
	fmt.Fprintf(&sb, "Info: %d\n", report.ByLevel[audit.LevelInfo])
	fmt.Fprintf(&sb, "Warnings: %d\n", report.ByLevel[audit.LevelWarn])
	fmt.Fprintf(&sb, "Critical: %d\n", report.ByLevel[audit.LevelCrit])
	return sb.String()
}
