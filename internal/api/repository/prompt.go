package repository

import (
	"fmt"
	"strings"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/utils"
)

// BuildEventAnalysisPrompt renders the analysis prompt for an economic event.
func BuildEventAnalysisPrompt(event *entity.Event, language, timezone string) string {
	loc := utils.LoadLocation(timezone)
	var sb strings.Builder

	sb.WriteString("You are a senior macro analyst writing for retail traders in the Gulf region.\n")
	sb.WriteString(fmt.Sprintf("Write the analysis in %s.\n\n", languageName(language)))
	sb.WriteString("Economic event:\n")
	sb.WriteString(fmt.Sprintf("- Title: %s\n", event.Title))
	sb.WriteString(fmt.Sprintf("- Country: %s\n", event.Country))
	sb.WriteString(fmt.Sprintf("- Currency: %s\n", event.Currency))
	sb.WriteString(fmt.Sprintf("- Time: %s (%s)\n", event.EventTime.In(loc).Format(time.RFC1123), loc.String()))
	sb.WriteString(fmt.Sprintf("- Importance: %s\n", entity.ImportanceLabel(event.Importance)))
	if event.Category != "" {
		sb.WriteString(fmt.Sprintf("- Category: %s\n", event.Category))
	}
	writeOptional(&sb, "Actual", event.ActualValue)
	writeOptional(&sb, "Forecast", event.Forecast)
	writeOptional(&sb, "Previous", event.Previous)

	sb.WriteString("\nCover, in short paragraphs:\n")
	sb.WriteString("1. What the indicator measures and why markets watch it.\n")
	sb.WriteString("2. How the actual or expected figure compares with the forecast and previous reading.\n")
	sb.WriteString("3. Likely impact on the currency, gold and major indices.\n")
	sb.WriteString("4. Key risks to watch.\n")
	sb.WriteString("Do not give personalised investment advice. Plain text only, no markdown headings.")
	return sb.String()
}

func writeOptional(sb *strings.Builder, label string, v *string) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return
	}
	sb.WriteString(fmt.Sprintf("- %s: %s\n", label, *v))
}
