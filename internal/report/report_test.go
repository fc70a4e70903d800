package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/pable/go-match-coach/internal/model"
)

func init() {
	color.NoColor = true
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		MatchID:    7000,
		AccountID:  42,
		HeroID:     1,
		HeroName:   "Anti-Mage",
		Won:        true,
		Duration:   2100,
		Role:       model.RoleCarry,
		RoleMethod: model.MethodHeuristic,
		MetricScores: map[string]model.MetricScore{
			model.MetricGPM:   {Metric: model.MetricGPM, Value: 650, Percentile: 90, Grade: "S", Weight: 0.3, Source: model.SourceDistribution},
			model.MetricKills: {Metric: model.MetricKills, Value: 10, Percentile: 75, Grade: "B", Source: model.SourceStatic},
		},
		OverallScore: 84,
		OverallGrade: "A",
		Mistakes: []model.Finding{
			{Type: model.SeverityWarning, Category: "Vision", Title: "Not enough wards", Description: "Only 1 ward.", Improvement: "Buy wards."},
		},
		Strengths:      []model.Finding{{Type: model.SeverityPositive, Category: "Farming", Title: "Strong farm", Description: "650 GPM."}},
		CoachingPoints: []model.CoachingPoint{{Area: "Vision", Action: "Buy wards.", Priority: 2}},
		Progression:    []model.ProgressionPoint{{Minute: 10, LastHits: 62, Gold: 4300, XP: 5000}},
		Fallbacks:      []string{"heroes:unavailable"},
	}
}

func TestPrintAnalysis(t *testing.T) {
	var buf bytes.Buffer
	PrintAnalysis(&buf, sampleResult())
	out := buf.String()

	for _, want := range []string{
		"Match: 7000", "Anti-Mage", "Win", "35:00",
		"Role: Carry (derived)", "Overall: 84 A",
		"gold_per_min", "30%", "distribution",
		"Not enough wards", "Strong farm", "1. (Vision) Buy wards.",
		"degraded: heroes:unavailable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	// Weighted metrics come first.
	if strings.Index(out, "gold_per_min") > strings.Index(out, "kills") {
		t.Error("weighted metric should be listed before unweighted ones")
	}
}

func TestPrintHeader_HintShowsConfidence(t *testing.T) {
	r := sampleResult()
	r.RoleMethod = model.MethodHint
	r.Confidence = 85
	var buf bytes.Buffer
	PrintHeader(&buf, r)
	if !strings.Contains(buf.String(), "(hint 85%)") {
		t.Errorf("header = %q", buf.String())
	}
}

func TestTrends(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.AnalysisSummary{
		{MatchID: 1, Role: model.RoleMid, Won: true, OverallScore: 60, ImprovementScore: 50, Mistakes: 2, AnalyzedAt: t0},
		{MatchID: 2, Role: model.RoleCarry, Won: false, OverallScore: 40, ImprovementScore: 30, Mistakes: 4, AnalyzedAt: t0.Add(time.Hour)},
		{MatchID: 3, Role: model.RoleMid, Won: false, OverallScore: 80, ImprovementScore: 70, Mistakes: 0, AnalyzedAt: t0.Add(2 * time.Hour)},
	}
	got := Trends(rows)
	if len(got) != 2 || got[0].Role != model.RoleCarry || got[1].Role != model.RoleMid {
		t.Fatalf("Trends = %+v", got)
	}
	mid := got[1]
	if mid.Matches != 2 || mid.Wins != 1 || mid.AvgOverall != 70 || mid.AvgMistakes != 1 {
		t.Errorf("mid trend = %+v", mid)
	}

	var buf bytes.Buffer
	PrintTrend(&buf, rows)
	if !strings.Contains(buf.String(), "+40") {
		t.Errorf("expected delta +40 from match 2 to 3:\n%s", buf.String())
	}
}

func TestFormatValue(t *testing.T) {
	if got := formatValue(650); got != "650" {
		t.Errorf("formatValue(650) = %q", got)
	}
	if got := formatValue(8.571); got != "8.57" {
		t.Errorf("formatValue(8.571) = %q", got)
	}
}
