package storage

import (
	"testing"
	"time"

	"github.com/pable/go-match-coach/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func TestPayloadPutGetExpiry(t *testing.T) {
	db := openMemDB(t)

	if err := db.PutPayload("match:1", []byte(`{"match_id":1}`), t0, time.Minute); err != nil {
		t.Fatalf("PutPayload: %v", err)
	}

	body, ok, err := db.GetPayload("match:1", t0.Add(59*time.Second))
	if err != nil || !ok {
		t.Fatalf("GetPayload before expiry: ok=%v err=%v", ok, err)
	}
	if string(body) != `{"match_id":1}` {
		t.Errorf("unexpected body %s", body)
	}

	_, ok, err = db.GetPayload("match:1", t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("GetPayload at expiry: %v", err)
	}
	if ok {
		t.Error("expected payload to be absent at expiry")
	}
	live, expired, _ := db.PayloadStats(t0)
	if live != 0 || expired != 0 {
		t.Errorf("expired read should delete the row, got live=%d expired=%d", live, expired)
	}
}

func TestPayloadOverwriteResetsTTL(t *testing.T) {
	db := openMemDB(t)

	db.PutPayload("k", []byte("a"), t0, time.Hour)
	db.PutPayload("k", []byte("b"), t0, time.Second)

	if _, ok, _ := db.GetPayload("k", t0.Add(2*time.Second)); ok {
		t.Error("second put should replace the TTL")
	}
}

func TestPayloadPrefixDeleteAndPurge(t *testing.T) {
	db := openMemDB(t)

	db.PutPayload("match:1", []byte("1"), t0, time.Hour)
	db.PutPayload("match:2", []byte("2"), t0, time.Second)
	db.PutPayload("matchup:1", []byte("x"), t0, time.Hour)
	db.PutPayload("player:1", []byte("3"), t0, time.Second)

	n, err := db.PurgeExpiredPayloads(t0.Add(time.Minute))
	if err != nil {
		t.Fatalf("PurgeExpiredPayloads: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 purged, got %d", n)
	}

	n, err = db.DeletePayloadsByPrefix("match:")
	if err != nil {
		t.Fatalf("DeletePayloadsByPrefix: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}
	if _, ok, _ := db.GetPayload("matchup:1", t0); !ok {
		t.Error("prefix delete must not touch matchup:1")
	}
}

func TestPayloadPrefixEscapesWildcards(t *testing.T) {
	db := openMemDB(t)
	db.PutPayload("a_b", []byte("1"), t0, time.Hour)
	db.PutPayload("axb", []byte("2"), t0, time.Hour)

	n, _ := db.DeletePayloadsByPrefix("a_")
	if n != 1 {
		t.Errorf("underscore must match literally, deleted %d", n)
	}
}

func sampleAnalysis(matchID, accountID int64, score int, at time.Time) *model.AnalysisResult {
	return &model.AnalysisResult{
		RunID:        "run-1",
		MatchID:      matchID,
		AccountID:    accountID,
		HeroID:       8,
		Role:         model.RoleMid,
		Won:          true,
		OverallScore: score,
		OverallGrade: "B",
		MetricScores: map[string]model.MetricScore{
			"gold_per_min": {Metric: "gold_per_min", Value: 600, Percentile: 72, Grade: "B"},
		},
		Mistakes:         []model.Finding{{Type: model.SeverityWarning, Category: "Vision", Priority: 2}},
		ImprovementScore: 61,
		AnalyzedAt:       at,
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	db := openMemDB(t)

	in := sampleAnalysis(7000, 42, 73, t0)
	if err := db.SaveAnalysis(in); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}

	got, err := db.GetAnalysis(7000, 42)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got == nil {
		t.Fatal("expected stored analysis")
	}
	if got.Role != model.RoleMid || got.OverallScore != 73 {
		t.Errorf("round trip mismatch: role=%v score=%d", got.Role, got.OverallScore)
	}
	if got.MetricScores["gold_per_min"].Percentile != 72 {
		t.Errorf("metric scores lost: %+v", got.MetricScores)
	}

	missing, err := db.GetAnalysis(1, 1)
	if err != nil || missing != nil {
		t.Errorf("expected nil for unknown pair, got %v %v", missing, err)
	}
}

func TestCorruptRoleIsAnError(t *testing.T) {
	db := openMemDB(t)
	if err := db.SaveAnalysis(sampleAnalysis(7000, 42, 73, t0)); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if _, err := db.conn.Exec(`UPDATE analyses
		SET role = 'Jungler', result_json = replace(result_json, '"role":"Mid"', '"role":"Jungler"')`); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if got, err := db.GetAnalysis(7000, 42); err == nil {
		t.Errorf("GetAnalysis: expected error, got role %v", got.Role)
	}
	if _, err := db.ListAnalyses(42, 0); err == nil {
		t.Error("ListAnalyses: expected error for unknown role")
	}
}

func TestListAnalysesOrderAndFilter(t *testing.T) {
	db := openMemDB(t)

	db.SaveAnalysis(sampleAnalysis(1, 42, 50, t0))
	db.SaveAnalysis(sampleAnalysis(2, 42, 60, t0.Add(time.Hour)))
	db.SaveAnalysis(sampleAnalysis(3, 99, 70, t0.Add(2*time.Hour)))

	list, err := db.ListAnalyses(42, 0)
	if err != nil {
		t.Fatalf("ListAnalyses: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rows for account 42, got %d", len(list))
	}
	// Newest first.
	if list[0].MatchID != 2 {
		t.Errorf("expected match 2 first, got %d", list[0].MatchID)
	}
	if list[0].Role != model.RoleMid || list[0].Mistakes != 1 || !list[0].Won {
		t.Errorf("summary fields mismatch: %+v", list[0])
	}

	all, _ := db.ListAnalyses(0, 2)
	if len(all) != 2 || all[0].MatchID != 3 {
		t.Errorf("limit/order across accounts wrong: %+v", all)
	}
}

func TestSaveAnalysisIdempotent(t *testing.T) {
	db := openMemDB(t)

	db.SaveAnalysis(sampleAnalysis(1, 42, 50, t0))
	if err := db.SaveAnalysis(sampleAnalysis(1, 42, 55, t0)); err != nil {
		t.Errorf("second SaveAnalysis should succeed (idempotent): %v", err)
	}
	list, _ := db.ListAnalyses(42, 0)
	if len(list) != 1 || list[0].OverallScore != 55 {
		t.Errorf("expected one upserted row with score 55, got %+v", list)
	}

	n, err := db.DeleteAnalyses(42)
	if err != nil || n != 1 {
		t.Errorf("DeleteAnalyses = %d, %v", n, err)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	db.SaveAnalysis(sampleAnalysis(1, 42, 50, t0))

	cols, rows, err := db.QueryRaw(`SELECT match_id, role FROM analyses`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[1] != "role" {
		t.Errorf("unexpected cols %v", cols)
	}
	if len(rows) != 1 || rows[0][0] != "1" || rows[0][1] != "Mid" {
		t.Errorf("unexpected rows %v", rows)
	}
}
