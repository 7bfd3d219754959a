package knowledge

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	// SQLite driver (required for database/sql registration).
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// Index is a local knowledge base stored in SQLite. Search is keyword
// based: documents matching any query keyword are scored by the share of
// keywords they contain, with title matches weighted higher.
type Index struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
}

// OpenIndex opens (and creates) the index database at path.
func OpenIndex(path string, logger zerolog.Logger) (*Index, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, errors.CodeKnowledgeUnavailable, "failed to create index directory", errors.CategorySystem)
		}
	}

	db, err := openDB(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeKnowledgeUnavailable, "failed to open index", errors.CategorySystem)
	}

	idx := &Index{
		db:   db,
		path: path,
		log:  logger.With().Str("component", "knowledge_index").Logger(),
	}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeKnowledgeUnavailable, "failed to initialize index schema", errors.CategorySystem)
	}
	return idx, nil
}

// openDB opens a single SQLite database with WAL and tuned pragmas.
func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func (x *Index) init() error {
	_, err := x.db.Exec(`
	CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		url         TEXT,
		content     TEXT NOT NULL,
		created_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_url ON documents(url) WHERE url IS NOT NULL AND url != '';
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at DESC);
	`)
	return err
}

// Endpoint returns the database path.
func (x *Index) Endpoint() string {
	return "sqlite://" + x.path
}

// Add stores a document and returns its id. A document with the same URL
// replaces the previous one.
func (x *Index) Add(ctx context.Context, d Document) (string, error) {
	if strings.TrimSpace(d.Content) == "" {
		return "", errors.New(errors.CodeInvalidInput, "document has no content", errors.CategoryUser)
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Title == "" {
		d.Title = "Untitled"
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeKnowledgeIngest, "failed to begin transaction", errors.CategoryTemporary)
	}
	defer tx.Rollback()

	if d.URL != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE url = ?`, d.URL); err != nil {
			return "", errors.Wrap(err, errors.CodeKnowledgeIngest, "failed to replace document", errors.CategoryTemporary)
		}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, url, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.ID, d.Title, d.URL, d.Content, time.Now().Unix())
	if err != nil {
		return "", errors.Wrap(err, errors.CodeKnowledgeIngest, "failed to insert document", errors.CategoryTemporary)
	}
	if err := tx.Commit(); err != nil {
		return "", errors.Wrap(err, errors.CodeKnowledgeIngest, "failed to commit document", errors.CategoryTemporary)
	}

	x.log.Info().Str("id", d.ID).Str("title", d.Title).Int("chars", len(d.Content)).Msg("document indexed")
	return d.ID, nil
}

// Count returns the number of indexed documents.
func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// Search returns up to limit documents ranked by keyword relevance.
func (x *Index) Search(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return &SearchResult{Success: true}, nil
	}

	clauses := make([]string, len(keywords))
	args := make([]any, 0, len(keywords)*2)
	for i, kw := range keywords {
		clauses[i] = "(instr(lower(title), ?) > 0 OR instr(lower(content), ?) > 0)"
		args = append(args, kw, kw)
	}

	rows, err := x.db.QueryContext(ctx, `
		SELECT title, url, content FROM documents
		WHERE `+strings.Join(clauses, " OR "), args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeKnowledgeQuery, "knowledge index query failed", errors.CategoryTemporary)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var title, content string
		var docURL sql.NullString
		if err := rows.Scan(&title, &docURL, &content); err != nil {
			continue
		}
		results = append(results, Result{
			Title:   title,
			URL:     docURL.String,
			Content: content,
			Preview: preview(content),
			Score:   relevance(title, content, keywords),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeKnowledgeQuery, "knowledge index scan failed", errors.CategoryTemporary)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return &SearchResult{Success: true, Results: results}, nil
}

// Close closes the database.
func (x *Index) Close() error {
	return x.db.Close()
}

var wordPattern = regexp.MustCompile(`\w+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "are": true, "was": true, "were": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"does": true, "did": true, "will": true, "would": true, "could": true,
	"should": true, "what": true, "which": true, "who": true, "when": true,
	"where": true, "why": true, "how": true, "this": true, "that": true,
	"these": true, "those": true, "for": true, "with": true, "from": true,
	"about": true, "tell": true, "show": true, "our": true, "you": true,
}

// extractKeywords lower-cases the query and drops short and stop words.
func extractKeywords(query string) []string {
	var keywords []string
	seen := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(query), -1) {
		if len(word) < 3 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// relevance scores a document: 70% keyword coverage of the content, 30%
// keyword coverage of the title.
func relevance(title, content string, keywords []string) float64 {
	title = strings.ToLower(title)
	content = strings.ToLower(content)

	var inTitle, inContent int
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			inTitle++
		}
		if strings.Contains(content, kw) {
			inContent++
		}
	}
	n := float64(len(keywords))
	return 0.7*float64(inContent)/n + 0.3*float64(inTitle)/n
}
