package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pable/go-match-coach/internal/model"
)

// ---- Payload store (second-level cache for gateway responses) ----

// GetPayload returns the body stored under key if it has not expired at now.
// An expired row is deleted and reported absent.
func (db *DB) GetPayload(key string, now time.Time) ([]byte, bool, error) {
	var body []byte
	var expiresAt int64
	err := db.conn.QueryRow(`SELECT body, expires_at FROM payloads WHERE key = ?`, key).
		Scan(&body, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get payload %s: %w", key, err)
	}
	if now.UnixMilli() >= expiresAt {
		if _, err := db.conn.Exec(`DELETE FROM payloads WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("evict payload %s: %w", key, err)
		}
		return nil, false, nil
	}
	return body, true, nil
}

// PutPayload stores body under key until now+ttl. Uses INSERT OR REPLACE so a
// rewrite discards the previous TTL.
func (db *DB) PutPayload(key string, body []byte, now time.Time, ttl time.Duration) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO payloads(key, body, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		key, body, now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put payload %s: %w", key, err)
	}
	return nil
}

// DeletePayload removes key.
func (db *DB) DeletePayload(key string) error {
	_, err := db.conn.Exec(`DELETE FROM payloads WHERE key = ?`, key)
	return err
}

// DeletePayloadsByPrefix removes every key starting with prefix.
func (db *DB) DeletePayloadsByPrefix(prefix string) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM payloads WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpiredPayloads removes every row whose TTL elapsed before now.
func (db *DB) PurgeExpiredPayloads(now time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM payloads WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PayloadStats reports live and expired row counts at now.
func (db *DB) PayloadStats(now time.Time) (live, expired int, err error) {
	err = db.conn.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN expires_at >  ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM payloads`, now.UnixMilli(), now.UnixMilli()).Scan(&live, &expired)
	return live, expired, err
}

// ---- Analysis history ----

// SaveAnalysis upserts one analysis keyed by (match_id, account_id).
func (db *DB) SaveAnalysis(r *model.AnalysisResult) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT OR REPLACE INTO analyses(
			match_id, account_id, run_id, hero_id, role, won,
			overall_score, overall_grade, improvement_score, mistakes,
			result_json, analyzed_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.MatchID, r.AccountID, r.RunID, r.HeroID, r.Role.String(), boolInt(r.Won),
		r.OverallScore, r.OverallGrade, r.ImprovementScore, len(r.Mistakes),
		string(body), r.AnalyzedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis %d/%d: %w", r.MatchID, r.AccountID, err)
	}
	return nil
}

// GetAnalysis returns the stored analysis, or nil if none exists.
func (db *DB) GetAnalysis(matchID, accountID int64) (*model.AnalysisResult, error) {
	var body string
	err := db.conn.QueryRow(`
		SELECT result_json FROM analyses WHERE match_id = ? AND account_id = ?`,
		matchID, accountID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r model.AnalysisResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decode analysis %d/%d: %w", matchID, accountID, err)
	}
	return &r, nil
}

// ListAnalyses returns summaries ordered newest first. accountID 0 lists every
// account; limit <= 0 means no limit.
func (db *DB) ListAnalyses(accountID int64, limit int) ([]model.AnalysisSummary, error) {
	query := `
		SELECT run_id, match_id, account_id, hero_id, role, won,
		       overall_score, overall_grade, improvement_score, mistakes, analyzed_at
		FROM analyses`
	var args []any
	if accountID != 0 {
		query += ` WHERE account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY analyzed_at DESC, match_id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisSummary
	for rows.Next() {
		var s model.AnalysisSummary
		var role string
		var wonInt int
		var analyzedAt int64
		if err := rows.Scan(&s.RunID, &s.MatchID, &s.AccountID, &s.HeroID, &role, &wonInt,
			&s.OverallScore, &s.OverallGrade, &s.ImprovementScore, &s.Mistakes, &analyzedAt); err != nil {
			return nil, err
		}
		r, ok := model.ParseRole(role)
		if !ok {
			return nil, fmt.Errorf("analysis %d/%d: unknown role %q", s.MatchID, s.AccountID, role)
		}
		s.Role = r
		s.Won = wonInt != 0
		s.AnalyzedAt = time.UnixMilli(analyzedAt).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteAnalyses removes stored analyses for accountID (0 = all) and returns the count.
func (db *DB) DeleteAnalyses(accountID int64) (int64, error) {
	var res sql.Result
	var err error
	if accountID == 0 {
		res, err = db.conn.Exec(`DELETE FROM analyses`)
	} else {
		res, err = db.conn.Exec(`DELETE FROM analyses WHERE account_id = ?`, accountID)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// QueryRaw runs an arbitrary read query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
