package services

import (
	"testing"

	. "fieldvisit/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestSummarizeEmpty(t *testing.T) {
	summary := summarize(nil)

	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.ByDisposition)
	assert.Nil(t, summary.AvgScoreOverall)
	assert.Nil(t, summary.AvgScoreInstallation)
	assert.Nil(t, summary.AvgScoreTechnician)
}

func TestSummarizeCountsAndAverages(t *testing.T) {
	audits := []*VisitAudit{
		{
			Disposition:       DispositionAuthorize,
			Resolution:        ResolutionOnSite,
			ScoreOverall:      intPtr(10),
			ScoreInstallation: intPtr(7),
		},
		{
			Disposition:  DispositionAuthorize,
			Resolution:   ResolutionTicket,
			ScoreOverall: intPtr(5),
			Malpractice:  true,
		},
		{
			Disposition: DispositionNoOneHome,
			Resolution:  ResolutionOnSite,
		},
	}

	summary := summarize(audits)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByDisposition[DispositionAuthorize])
	assert.Equal(t, 1, summary.ByDisposition[DispositionNoOneHome])
	assert.Equal(t, 1, summary.MalpracticeCount)
	assert.Equal(t, 1, summary.TicketCount)

	require.NotNil(t, summary.AvgScoreOverall)
	assert.True(t, summary.AvgScoreOverall.Equal(decimal.RequireFromString("7.5")))

	require.NotNil(t, summary.AvgScoreInstallation)
	assert.True(t, summary.AvgScoreInstallation.Equal(decimal.RequireFromString("7")))

	assert.Nil(t, summary.AvgScoreTechnician)
}
