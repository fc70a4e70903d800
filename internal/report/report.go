package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-match-coach/internal/model"
)

var (
	cTitle    = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cCritical = color.New(color.FgRed, color.Bold)
	cWarning  = color.New(color.FgYellow)
	cPositive = color.New(color.FgGreen)

	gradeColors = map[string]*color.Color{
		"S": color.New(color.FgMagenta, color.Bold),
		"A": color.New(color.FgGreen, color.Bold),
		"B": color.New(color.FgGreen),
		"C": color.New(color.FgYellow),
		"D": color.New(color.FgRed),
	}
)

// Grade renders a letter grade in its colour.
func Grade(g string) string {
	if c, ok := gradeColors[g]; ok {
		return c.Sprint(g)
	}
	return g
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// roleMethodLabel renders the detection method the way the report shows it.
func roleMethodLabel(m model.DetectionMethod) string {
	if m == model.MethodHeuristic {
		return "derived"
	}
	return string(m)
}

// PrintAnalysis writes the full coaching report for one analysis.
func PrintAnalysis(w io.Writer, r *model.AnalysisResult) {
	PrintHeader(w, r)
	PrintMetricTable(w, r.MetricScores)
	PrintFindings(w, r)
	PrintSubScores(w, r)
	PrintProgression(w, r.Progression)
	if len(r.Fallbacks) > 0 {
		fmt.Fprintln(w, cMuted.Sprintf("degraded: %s", strings.Join(r.Fallbacks, ", ")))
	}
}

// PrintHeader prints the one-line match summary and overall grade.
func PrintHeader(w io.Writer, r *model.AnalysisResult) {
	hero := r.HeroName
	if hero == "" {
		hero = "hero " + strconv.Itoa(r.HeroID)
	}
	result := "Loss"
	if r.Won {
		result = "Win"
	}
	confidence := ""
	if r.RoleMethod == model.MethodHint {
		confidence = fmt.Sprintf(" %d%%", r.Confidence)
	}
	fmt.Fprintf(w, "\nMatch: %d  |  Account: %d  |  %s  |  %s  |  %d:%02d\n",
		r.MatchID, r.AccountID, hero, result, r.Duration/60, r.Duration%60)
	fmt.Fprintf(w, "Role: %s (%s%s)  |  Overall: %d %s  |  Improvement: %d\n\n",
		r.Role, roleMethodLabel(r.RoleMethod), confidence,
		r.OverallScore, Grade(r.OverallGrade), r.ImprovementScore)
}

// PrintMetricTable prints graded metrics, weighted ones first.
func PrintMetricTable(w io.Writer, scores map[string]model.MetricScore) {
	rows := make([]model.MetricScore, 0, len(scores))
	for _, s := range scores {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		return rows[i].Metric < rows[j].Metric
	})

	table := newTable(w)
	table.Header("METRIC", "VALUE", "PCTL", "GRADE", "WEIGHT", "SOURCE", "NOTE")
	for _, s := range rows {
		weight := "—"
		if s.Weight > 0 {
			weight = fmt.Sprintf("%.0f%%", s.Weight*100)
		}
		table.Append(
			s.Metric,
			formatValue(s.Value),
			fmt.Sprintf("%.0f", s.Percentile),
			Grade(s.Grade),
			weight,
			string(s.Source),
			s.Interpretation,
		)
	}
	table.Render()
}

// PrintFindings prints mistakes, strengths and coaching points.
func PrintFindings(w io.Writer, r *model.AnalysisResult) {
	if len(r.Mistakes) > 0 {
		fmt.Fprintln(w, cTitle.Sprint("\nMistakes"))
		for _, m := range r.Mistakes {
			fmt.Fprintf(w, "  %s [%s] %s: %s\n", severity(m.Type), m.Category, m.Title, m.Description)
			if m.Improvement != "" {
				fmt.Fprintf(w, "      → %s\n", m.Improvement)
			}
		}
	}
	if len(r.Strengths) > 0 {
		fmt.Fprintln(w, cTitle.Sprint("\nStrengths"))
		for _, s := range r.Strengths {
			fmt.Fprintf(w, "  %s [%s] %s: %s\n", severity(s.Type), s.Category, s.Title, s.Description)
		}
	}
	if len(r.CoachingPoints) > 0 {
		fmt.Fprintln(w, cTitle.Sprint("\nCoaching"))
		for i, c := range r.CoachingPoints {
			fmt.Fprintf(w, "  %d. (%s) %s\n", i+1, c.Area, c.Action)
		}
	}
	fmt.Fprintln(w)
}

func severity(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return cCritical.Sprint("!!")
	case model.SeverityWarning:
		return cWarning.Sprint("! ")
	case model.SeverityPositive:
		return cPositive.Sprint("+ ")
	default:
		return cMuted.Sprint("· ")
	}
}

// PrintSubScores prints the improvement sub-area breakdown.
func PrintSubScores(w io.Writer, r *model.AnalysisResult) {
	s := r.SubScores
	table := newTable(w)
	table.Header("FARMING", "POSITIONING", "TEAMFIGHTING", "VISION", "ITEMIZATION", "IMPROVEMENT")
	table.Append(
		strconv.Itoa(s.Farming),
		strconv.Itoa(s.Positioning),
		strconv.Itoa(s.Teamfighting),
		strconv.Itoa(s.Vision),
		strconv.Itoa(s.Itemization),
		strconv.Itoa(r.ImprovementScore),
	)
	table.Render()
}

// PrintProgression prints the 10/20/30 minute snapshots, if any.
func PrintProgression(w io.Writer, points []model.ProgressionPoint) {
	if len(points) == 0 {
		return
	}
	table := newTable(w)
	table.Header("MIN", "LH", "GOLD", "XP")
	for _, p := range points {
		table.Append(strconv.Itoa(p.Minute), strconv.Itoa(p.LastHits), strconv.Itoa(p.Gold), strconv.Itoa(p.XP))
	}
	table.Render()
}

// PrintHistory lists stored analyses, newest first.
func PrintHistory(w io.Writer, rows []model.AnalysisSummary) {
	table := newTable(w)
	table.Header("DATE", "MATCH", "ACCOUNT", "HERO", "ROLE", "RESULT", "OVERALL", "GRADE", "IMPROVE", "MISTAKES")
	for _, s := range rows {
		result := "L"
		if s.Won {
			result = "W"
		}
		table.Append(
			s.AnalyzedAt.Format("2006-01-02 15:04"),
			strconv.FormatInt(s.MatchID, 10),
			strconv.FormatInt(s.AccountID, 10),
			strconv.Itoa(s.HeroID),
			s.Role.String(),
			result,
			strconv.Itoa(s.OverallScore),
			Grade(s.OverallGrade),
			strconv.Itoa(s.ImprovementScore),
			strconv.Itoa(s.Mistakes),
		)
	}
	table.Render()
}

// RoleTrend aggregates stored analyses for one role.
type RoleTrend struct {
	Role           model.Role
	Matches        int
	Wins           int
	AvgOverall     float64
	AvgImprovement float64
	AvgMistakes    float64
}

// Trends groups rows by role in precedence order.
func Trends(rows []model.AnalysisSummary) []RoleTrend {
	byRole := map[model.Role]*RoleTrend{}
	for _, s := range rows {
		t, ok := byRole[s.Role]
		if !ok {
			t = &RoleTrend{Role: s.Role}
			byRole[s.Role] = t
		}
		t.Matches++
		if s.Won {
			t.Wins++
		}
		t.AvgOverall += float64(s.OverallScore)
		t.AvgImprovement += float64(s.ImprovementScore)
		t.AvgMistakes += float64(s.Mistakes)
	}
	var out []RoleTrend
	for _, r := range model.AllRoles {
		t, ok := byRole[r]
		if !ok {
			continue
		}
		n := float64(t.Matches)
		t.AvgOverall /= n
		t.AvgImprovement /= n
		t.AvgMistakes /= n
		out = append(out, *t)
	}
	return out
}

// PrintTrend prints the chronological series followed by the per-role summary.
func PrintTrend(w io.Writer, rows []model.AnalysisSummary) {
	chrono := append([]model.AnalysisSummary(nil), rows...)
	sort.SliceStable(chrono, func(i, j int) bool {
		return chrono[i].AnalyzedAt.Before(chrono[j].AnalyzedAt)
	})

	table := newTable(w)
	table.Header("#", "MATCH", "ROLE", "OVERALL", "GRADE", "IMPROVE", "Δ OVERALL")
	prev := -1
	for i, s := range chrono {
		delta := "—"
		if prev >= 0 {
			delta = fmt.Sprintf("%+d", s.OverallScore-prev)
		}
		prev = s.OverallScore
		table.Append(
			strconv.Itoa(i+1),
			strconv.FormatInt(s.MatchID, 10),
			s.Role.String(),
			strconv.Itoa(s.OverallScore),
			Grade(s.OverallGrade),
			strconv.Itoa(s.ImprovementScore),
			delta,
		)
	}
	table.Render()

	fmt.Fprintln(w)
	summary := newTable(w)
	summary.Header("ROLE", "MATCHES", "WIN%", "AVG OVERALL", "AVG IMPROVE", "AVG MISTAKES")
	for _, t := range Trends(rows) {
		summary.Append(
			t.Role.String(),
			strconv.Itoa(t.Matches),
			fmt.Sprintf("%.0f%%", 100*float64(t.Wins)/float64(t.Matches)),
			fmt.Sprintf("%.1f", t.AvgOverall),
			fmt.Sprintf("%.1f", t.AvgImprovement),
			fmt.Sprintf("%.1f", t.AvgMistakes),
		)
	}
	summary.Render()
}

// PrintRaw prints a raw query result.
func PrintRaw(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	hdr := make([]any, len(cols))
	for i, c := range cols {
		hdr[i] = c
	}
	table.Header(hdr...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
