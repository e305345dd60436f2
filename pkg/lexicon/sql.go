package lexicon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Schema is the layout SQLStore reads. Stats columns may hold NULL or text;
// both read as 0 when they are not integers. The explanation columns are
// optional.
const Schema = `
CREATE TABLE IF NOT EXISTS dictionary (
	words TEXT NOT NULL,
	count INTEGER,
	variety INTEGER,
	explanation TEXT
);
CREATE TABLE IF NOT EXISTS phrase (
	PHRASE TEXT NOT NULL,
	count INTEGER,
	variety INTEGER,
	explanation TEXT
);
`

// indexSchema backs word lookups in both case modes. The phrase table is read
// whole, so it needs none.
const indexSchema = `
CREATE INDEX IF NOT EXISTS dictionary_words ON dictionary(words);
CREATE INDEX IF NOT EXISTS dictionary_words_fold ON dictionary(lower(words));
`

const (
	statsColumns       = `COALESCE(CAST(count AS INTEGER), 0), COALESCE(CAST(variety AS INTEGER), 0)`
	wordStrictQuery    = `SELECT words, ` + statsColumns + ` FROM dictionary WHERE words = ? ORDER BY rowid DESC LIMIT 1`
	wordFoldQuery      = `SELECT words, ` + statsColumns + ` FROM dictionary WHERE lower(words) = ? ORDER BY rowid DESC LIMIT 1`
	explainStrictQuery = `SELECT COALESCE(explanation, '') FROM dictionary WHERE words = ? ORDER BY rowid DESC LIMIT 1`
	explainFoldQuery   = `SELECT COALESCE(explanation, '') FROM dictionary WHERE lower(words) = ? ORDER BY rowid DESC LIMIT 1`
	explainColumnQuery = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = 'explanation'`
)

// tableQuery selects every row of table in insertion order.
func tableQuery(table, keyColumn string, explained bool) string {
	explanation := `''`
	if explained {
		explanation = `COALESCE(explanation, '')`
	}
	return `SELECT ` + keyColumn + `, ` + statsColumns + `, ` + explanation + ` FROM ` + table + ` ORDER BY rowid`
}

// SQLStore is a Lexicon backed by a SQLite database. Word lookups are queries,
// so failures surface as ErrUnavailable instead of stale answers. Phrases are
// read once per generation into an index keyed by PhraseKey, because stored
// phrases may carry any spacing.
type SQLStore struct {
	db         *sql.DB
	mu         sync.RWMutex
	mode       CaseMode
	generation uint64
	phrases    map[string]Entry
	phrasesAt  uint64
	maxWords   int
}

// OpenSQL opens the database at path read-only.
func OpenSQL(path string, mode CaseMode) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening lexicon %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening lexicon %s: %w: %w", path, ErrUnavailable, err)
	}
	log.Debugf("Opened lexicon database at %s", path)
	return NewSQLStore(db, mode), nil
}

// NewSQLStore wraps an already opened database.
func NewSQLStore(db *sql.DB, mode CaseMode) *SQLStore {
	return &SQLStore{db: db, mode: mode}
}

// CreateIndexes adds the word indexes to the database at path, including the
// lower(words) expression index fold case lookups use. It opens the file
// read-write.
func CreateIndexes(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return fmt.Errorf("opening lexicon %s: %w", path, err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, indexSchema); err != nil {
		return fmt.Errorf("indexing lexicon %s: %w", path, err)
	}
	log.Debugf("Indexed lexicon database at %s", path)
	return nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) CaseMode() CaseMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetCaseMode switches how keys are matched against stored rows.
func (s *SQLStore) SetCaseMode(mode CaseMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != mode {
		s.mode = mode
		s.generation++
	}
}

// MaxPhraseWords counts the words of the longest stored phrase. It reports -1
// if the phrase table cannot be read.
func (s *SQLStore) MaxPhraseWords() int {
	if _, err := s.phraseIndex(); err != nil {
		log.Warnf("Could not measure phrase table: %v", err)
		return -1
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxWords
}

// Invalidate marks the store contents as changed, e.g. after the backing
// file was rewritten by another tool.
func (s *SQLStore) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *SQLStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

func (s *SQLStore) LookupWord(key string) (Entry, bool, error) {
	q := wordStrictQuery
	if s.CaseMode() == FoldCase {
		q = wordFoldQuery
	}
	var e Entry
	err := s.db.QueryRow(q, key).Scan(&e.Key, &e.Count, &e.Variety)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %q: %w: %w", key, ErrUnavailable, err)
	}
	e.Key = key
	return e, true, nil
}

func (s *SQLStore) LookupPhrase(key string) (Entry, bool, error) {
	idx, err := s.phraseIndex()
	if err != nil {
		return Entry{}, false, fmt.Errorf("looking up %q: %w", key, err)
	}
	e, ok := idx[key]
	return e, ok, nil
}

// phraseIndex returns the phrase rows keyed by PhraseKey under the current
// case mode, reading the table again when the generation moved. Later rows win.
func (s *SQLStore) phraseIndex() (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phrases != nil && s.phrasesAt == s.generation {
		return s.phrases, nil
	}

	ctx := context.Background()
	explained, err := s.hasExplanation(ctx, "phrase")
	if err != nil {
		return nil, err
	}
	rows, err := s.loadTable(ctx, tableQuery("phrase", "PHRASE", explained))
	if err != nil {
		return nil, err
	}
	idx := make(map[string]Entry, len(rows))
	maxWords := 0
	for _, e := range rows {
		e.Key = s.mode.Normalize(PhraseKey(e.Key))
		if e.Key == "" {
			continue
		}
		idx[e.Key] = e
		if n := strings.Count(e.Key, " ") + 1; n > maxWords {
			maxWords = n
		}
	}
	s.phrases, s.phrasesAt, s.maxWords = idx, s.generation, maxWords
	log.Debugf("Indexed %d phrases", len(idx))
	return idx, nil
}

// Explain looks text up as a phrase when it has more than one word, otherwise
// as a word. Databases without explanation columns explain nothing.
func (s *SQLStore) Explain(text string) (string, bool, error) {
	mode := s.CaseMode()
	key := mode.Normalize(PhraseKey(text))
	if key == "" {
		return "", false, nil
	}
	if strings.Contains(key, " ") {
		idx, err := s.phraseIndex()
		if err != nil {
			return "", false, fmt.Errorf("explaining %q: %w", text, err)
		}
		e := idx[key]
		return e.Explanation, e.Explanation != "", nil
	}

	ctx := context.Background()
	explained, err := s.hasExplanation(ctx, "dictionary")
	if err != nil || !explained {
		return "", false, err
	}
	q := explainStrictQuery
	if mode == FoldCase {
		q = explainFoldQuery
	}
	var out string
	err = s.db.QueryRowContext(ctx, q, key).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("explaining %q: %w: %w", text, ErrUnavailable, err)
	}
	return out, out != "", nil
}

func (s *SQLStore) hasExplanation(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, explainColumnQuery, table).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Load reads every word and phrase row in insertion order.
func (s *SQLStore) Load(ctx context.Context) (words, phrases []Entry, err error) {
	explained, err := s.hasExplanation(ctx, "dictionary")
	if err != nil {
		return nil, nil, fmt.Errorf("loading words: %w", err)
	}
	words, err = s.loadTable(ctx, tableQuery("dictionary", "words", explained))
	if err != nil {
		return nil, nil, fmt.Errorf("loading words: %w", err)
	}
	explained, err = s.hasExplanation(ctx, "phrase")
	if err != nil {
		return nil, nil, fmt.Errorf("loading phrases: %w", err)
	}
	phrases, err = s.loadTable(ctx, tableQuery("phrase", "PHRASE", explained))
	if err != nil {
		return nil, nil, fmt.Errorf("loading phrases: %w", err)
	}
	return words, phrases, nil
}

// LoadInto replaces the contents of mem with the store's rows.
func (s *SQLStore) LoadInto(ctx context.Context, mem *Memory) error {
	words, phrases, err := s.Load(ctx)
	if err != nil {
		return err
	}
	mem.Replace(words, phrases)
	return nil
}

func (s *SQLStore) loadTable(ctx context.Context, query string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Count, &e.Variety, &e.Explanation); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return out, nil
}
