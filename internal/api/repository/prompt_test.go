package repository

import (
	"testing"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestBuildEventAnalysisPrompt(t *testing.T) {
	event := &entity.Event{
		ID:         7,
		Title:      "CPI y/y",
		Country:    "US",
		Currency:   "USD",
		Importance: entity.ImportanceHigh,
		EventTime:  time.Date(2024, 3, 12, 12, 30, 0, 0, time.UTC),
		Forecast:   utils.ToPointer("3.1%"),
		Previous:   utils.ToPointer("3.1%"),
	}

	prompt := BuildEventAnalysisPrompt(event, "ar", "Asia/Dubai")

	assert.Contains(t, prompt, "Write the analysis in Arabic.")
	assert.Contains(t, prompt, "- Title: CPI y/y")
	assert.Contains(t, prompt, "- Importance: high")
	assert.Contains(t, prompt, "- Forecast: 3.1%")
	assert.NotContains(t, prompt, "- Actual:")
	assert.Contains(t, prompt, "16:30")
}
