package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across cases, spotlight_posts, and
// messages using plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	// Cases sub-query
	if q.FilterType == "" || q.FilterType == ResultCase {
		caseWhere := "c.fts @@ " + tsQuery
		if q.FilterCaseID != "" {
			caseWhere += fmt.Sprintf(" AND c.id = $%d", argN)
			args = append(args, q.FilterCaseID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'case'::text AS type, c.id, TRIM(c.first_name || ' ' || c.last_name) AS title,
				ts_headline('english', coalesce(c.summary, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				c.id AS case_id,
				''::text AS kind,
				ts_rank(c.fts, %s) AS rank
			FROM cases c
			WHERE %s`, tsQuery, tsQuery, caseWhere))
	}

	// Spotlight posts sub-query
	if q.FilterType == "" || q.FilterType == ResultPost {
		postWhere := "sp.fts @@ " + tsQuery
		if q.FilterCaseID != "" {
			postWhere += fmt.Sprintf(" AND sp.case_id = $%d", argN)
			args = append(args, q.FilterCaseID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'post'::text AS type, sp.id, sp.title,
				ts_headline('english', coalesce(sp.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				sp.case_id,
				''::text AS kind,
				ts_rank(sp.fts, %s) AS rank
			FROM spotlight_posts sp
			WHERE %s`, tsQuery, tsQuery, postWhere))
	}

	// Tips sub-query, only when the caller may read tip messages.
	if q.IncludeTips && (q.FilterType == "" || q.FilterType == ResultTip) {
		tipWhere := "m.fts @@ " + tsQuery
		if q.FilterCaseID != "" {
			tipWhere += fmt.Sprintf(" AND m.case_id = $%d", argN)
			args = append(args, q.FilterCaseID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'tip'::text AS type, m.id, m.subject AS title,
				ts_headline('english', coalesce(m.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				m.case_id,
				m.kind,
				ts_rank(m.fts, %s) AS rank
			FROM messages m
			WHERE %s`, tsQuery, tsQuery, tipWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, case_id, kind
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.CaseID, &r.Kind); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]CaseRecord, []PostRecord, []TipRecord, error) {
	caseRows, err := p.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, summary, subdomain, status
		FROM cases
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load cases: %w", err)
	}
	defer caseRows.Close()

	cases := make([]CaseRecord, 0)
	for caseRows.Next() {
		var c CaseRecord
		if err := caseRows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Summary, &c.Subdomain, &c.Status); err != nil {
			return nil, nil, nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := caseRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate cases: %w", err)
	}

	postRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, body, case_id
		FROM spotlight_posts
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load posts: %w", err)
	}
	defer postRows.Close()

	posts := make([]PostRecord, 0)
	for postRows.Next() {
		var post PostRecord
		if err := postRows.Scan(&post.ID, &post.Title, &post.Body, &post.CaseID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate posts: %w", err)
	}

	tipRows, err := p.db.QueryContext(ctx, `
		SELECT id, subject, body, case_id, kind
		FROM messages
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load tips: %w", err)
	}
	defer tipRows.Close()

	tips := make([]TipRecord, 0)
	for tipRows.Next() {
		var tip TipRecord
		if err := tipRows.Scan(&tip.ID, &tip.Subject, &tip.Body, &tip.CaseID, &tip.Kind); err != nil {
			return nil, nil, nil, fmt.Errorf("scan tip: %w", err)
		}
		tips = append(tips, tip)
	}
	if err := tipRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate tips: %w", err)
	}

	return cases, posts, tips, nil
}
