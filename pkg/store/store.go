package store

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"photosync/pkg/errors"
)

// Epoch is the watermark value for a never-synced source.
var Epoch = time.Unix(0, 0).UTC()

// Store is the persistent store for sources, photos and the text index.
// All get-or-create operations are single-statement upserts keyed on the
// unique column, so they stay race-free if callers ever parallelize.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries in tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate() error {
	for _, stmt := range strings.Split(migrationsSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// isUniqueConstraintErr returns true when the error indicates a unique
// constraint violation.
func isUniqueConstraintErr(err error) bool {
	var serr sqlite3.Error
	if stderrors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// ---- Sources ----

// CreateSource inserts a new source. A source with the same URL already
// stored surfaces as a duplicate error for the caller to recover from.
func (s *Store) CreateSource(src *Source) error {
	if strings.TrimSpace(src.URL) == "" {
		return errors.New(errors.ErrorTypeConfiguration, "source URL must be non-empty")
	}
	lastSynced := src.LastSynced
	if lastSynced.IsZero() {
		lastSynced = Epoch
	}
	res, err := s.db.Exec(
		`INSERT INTO sources (url, name, description, avatar_url, last_synced) VALUES (?, ?, ?, ?, ?)`,
		src.URL, src.Name, src.Description, src.AvatarURL, lastSynced,
	)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return errors.New(errors.ErrorTypeDuplicate, "source %s already exists", src.URL)
		}
		return fmt.Errorf("insert source: %w", err)
	}
	src.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	src.LastSynced = lastSynced
	return nil
}

func scanSource(row interface{ Scan(...interface{}) error }) (*Source, error) {
	var src Source
	if err := row.Scan(&src.ID, &src.URL, &src.Name, &src.Description, &src.AvatarURL, &src.LastSynced); err != nil {
		return nil, err
	}
	src.LastSynced = src.LastSynced.UTC()
	return &src, nil
}

const sourceColumns = `id, url, name, description, avatar_url, last_synced`

// SourceByURL looks up a source by its canonical URL.
func (s *Store) SourceByURL(url string) (*Source, error) {
	row := s.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE url = ?`, url)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrorTypeNotFound, "no source with url %s", url)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// SourceByName looks up a source by its display name.
func (s *Store) SourceByName(name string) (*Source, error) {
	row := s.db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE name = ?`, name)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrorTypeNotFound, "no source named %s", name)
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Sources returns every stored source ordered by id.
func (s *Store) Sources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

// DeleteSource removes a source. Owned photos survive as orphans.
func (s *Store) DeleteSource(id int64) error {
	res, err := s.db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New(errors.ErrorTypeNotFound, "no source with id %d", id)
	}
	return nil
}

// UpdateLastSynced moves the watermark for a source.
func (s *Store) UpdateLastSynced(id int64, t time.Time) error {
	_, err := s.db.Exec(`UPDATE sources SET last_synced = ? WHERE id = ?`, t.UTC(), id)
	return err
}

// ResetLastSynced moves the watermark back to the epoch so the next sync
// pulls everything.
func (s *Store) ResetLastSynced(id int64) error {
	return s.UpdateLastSynced(id, Epoch)
}

// PhotoCount counts the photos attached to a source.
func (s *Store) PhotoCount(sourceID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM photos WHERE source_id = ?`, sourceID).Scan(&n)
	return n, err
}

// ---- Photos ----

// CreatePhoto inserts a photo unless one with the same photo URL already
// exists. Returns false without error when the photo was already stored;
// in that case p.ID is set to the existing row's id.
func (s *Store) CreatePhoto(p *Photo) (bool, error) {
	if strings.TrimSpace(p.PhotoURL) == "" {
		return false, errors.New(errors.ErrorTypeConfiguration, "photo URL must be non-empty")
	}
	var sourceID interface{}
	if p.SourceID != 0 {
		sourceID = p.SourceID
	}
	res, err := s.db.Exec(
		`INSERT INTO photos (source_id, post_url, photo_url, posted, title, caption, likes, deleted, rating)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(photo_url) DO NOTHING`,
		sourceID, p.PostURL, p.PhotoURL, p.Posted.UTC(), p.Title, p.Caption, p.Likes, p.Deleted, p.Rating,
	)
	if err != nil {
		return false, fmt.Errorf("insert photo: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		err := s.db.QueryRow(`SELECT id FROM photos WHERE photo_url = ?`, p.PhotoURL).Scan(&p.ID)
		return false, err
	}
	p.ID, err = res.LastInsertId()
	return true, err
}

// PhotoByURL looks up a photo by its image URL.
func (s *Store) PhotoByURL(url string) (*Photo, error) {
	var p Photo
	var sourceID sql.NullInt64
	var posted sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, source_id, post_url, photo_url, posted, title, caption, likes, deleted, rating
		 FROM photos WHERE photo_url = ?`, url,
	).Scan(&p.ID, &sourceID, &p.PostURL, &p.PhotoURL, &posted, &p.Title, &p.Caption, &p.Likes, &p.Deleted, &p.Rating)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrorTypeNotFound, "no photo with url %s", url)
	}
	if err != nil {
		return nil, err
	}
	if sourceID.Valid {
		p.SourceID = sourceID.Int64
	}
	if posted.Valid {
		p.Posted = posted.Time.UTC()
	}
	return &p, nil
}

// ---- Tags and words ----

// GetOrCreateTag returns the id for a normalized tag string, inserting it if
// absent. The second return reports whether a new row was created, so the
// caller knows when to run the one-time word decomposition.
func (s *Store) GetOrCreateTag(tag string) (int64, bool, error) {
	if tag == "" {
		return 0, false, errors.New(errors.ErrorTypeConfiguration, "tag must be non-empty")
	}
	res, err := s.db.Exec(`INSERT INTO tags (tag) VALUES (?) ON CONFLICT(tag) DO NOTHING`, tag)
	if err != nil {
		return 0, false, fmt.Errorf("upsert tag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		var id int64
		err := s.db.QueryRow(`SELECT id FROM tags WHERE tag = ?`, tag).Scan(&id)
		return id, false, err
	}
	id, err := res.LastInsertId()
	return id, true, err
}

// GetOrCreateWord returns the id for a normalized word, inserting it if
// absent.
func (s *Store) GetOrCreateWord(word string) (int64, error) {
	if word == "" {
		return 0, errors.New(errors.ErrorTypeConfiguration, "word must be non-empty")
	}
	var id int64
	err := s.db.QueryRow(
		`INSERT INTO words (word) VALUES (?)
		 ON CONFLICT(word) DO UPDATE SET word = excluded.word
		 RETURNING id`, word,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word: %w", err)
	}
	return id, nil
}

// LinkTagWord attaches a constituent word to a tag. Re-linking is a no-op.
func (s *Store) LinkTagWord(tagID, wordID int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO tag_words (tag_id, word_id) VALUES (?, ?)`, tagID, wordID)
	return err
}

// LinkPhotoTag attaches a tag to a photo. Re-linking is a no-op.
func (s *Store) LinkPhotoTag(photoID, tagID int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO photo_tags (photo_id, tag_id) VALUES (?, ?)`, photoID, tagID)
	return err
}

// TagsForPhoto returns the tags attached to a photo.
func (s *Store) TagsForPhoto(photoID int64) ([]Tag, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.tag FROM tags t
		 JOIN photo_tags pt ON pt.tag_id = t.id
		 WHERE pt.photo_id = ? ORDER BY t.id`, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Tag); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// WordsForTag returns a tag's constituent words.
func (s *Store) WordsForTag(tagID int64) ([]Word, error) {
	rows, err := s.db.Query(
		`SELECT w.id, w.word FROM words w
		 JOIN tag_words tw ON tw.word_id = w.id
		 WHERE tw.tag_id = ? ORDER BY w.id`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Word); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ---- Word associations ----

// ReplaceWordAssociations overwrites the full photo-word strength map for a
// photo. The delete and inserts commit together so a reindex never leaves a
// partial mix of old and new strengths.
func (s *Store) ReplaceWordAssociations(photoID int64, strengths map[int64]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM word_associations WHERE photo_id = ?`, photoID); err != nil {
		return fmt.Errorf("clear word associations: %w", err)
	}
	for wordID, strength := range strengths {
		if strength <= 0 {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO word_associations (photo_id, word_id, strength) VALUES (?, ?, ?)`,
			photoID, wordID, strength,
		); err != nil {
			return fmt.Errorf("insert word association: %w", err)
		}
	}
	return tx.Commit()
}

// WordAssociations returns the word strengths recorded for a photo.
func (s *Store) WordAssociations(photoID int64) ([]WordAssociation, error) {
	rows, err := s.db.Query(
		`SELECT wa.photo_id, wa.word_id, w.word, wa.strength
		 FROM word_associations wa
		 JOIN words w ON w.id = wa.word_id
		 WHERE wa.photo_id = ? ORDER BY w.word`, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WordAssociation
	for rows.Next() {
		var a WordAssociation
		if err := rows.Scan(&a.PhotoID, &a.WordID, &a.Word, &a.Strength); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- Ngrams ----

// GetOrCreateNgram resolves an n-gram by its canonical expression, inserting
// it if absent. The second return reports whether a new row was created, so
// the caller knows when to persist the ordered word associations.
func (s *Store) GetOrCreateNgram(expression string) (int64, bool, error) {
	if expression == "" {
		return 0, false, errors.New(errors.ErrorTypeConfiguration, "ngram expression must be non-empty")
	}
	res, err := s.db.Exec(`INSERT INTO ngrams (expression) VALUES (?) ON CONFLICT(expression) DO NOTHING`, expression)
	if err != nil {
		return 0, false, fmt.Errorf("upsert ngram: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		var id int64
		err := s.db.QueryRow(`SELECT id FROM ngrams WHERE expression = ?`, expression).Scan(&id)
		return id, false, err
	}
	id, err := res.LastInsertId()
	return id, true, err
}

// SetNgramWords persists the ordered word sequence for a freshly created
// n-gram. Position is the zero-based offset in the expression; traversal
// order is load-bearing.
func (s *Store) SetNgramWords(ngramID int64, wordIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ngram_words WHERE ngram_id = ?`, ngramID); err != nil {
		return err
	}
	for position, wordID := range wordIDs {
		if _, err := tx.Exec(
			`INSERT INTO ngram_words (ngram_id, word_id, position) VALUES (?, ?, ?)`,
			ngramID, wordID, position,
		); err != nil {
			return fmt.Errorf("insert ngram word: %w", err)
		}
	}
	return tx.Commit()
}

// LinkPhotoNgram attaches an n-gram to a photo. Re-linking is a no-op.
func (s *Store) LinkPhotoNgram(photoID, ngramID int64) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO photo_ngrams (photo_id, ngram_id) VALUES (?, ?)`, photoID, ngramID)
	return err
}

// NgramByExpression looks up an n-gram by its canonical expression.
func (s *Store) NgramByExpression(expression string) (*Ngram, error) {
	var n Ngram
	err := s.db.QueryRow(`SELECT id, expression FROM ngrams WHERE expression = ?`, expression).
		Scan(&n.ID, &n.Expression)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrorTypeNotFound, "no ngram %q", expression)
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// NgramWords returns an n-gram's words in original sequence order.
func (s *Store) NgramWords(ngramID int64) ([]Word, error) {
	rows, err := s.db.Query(
		`SELECT w.id, w.word FROM words w
		 JOIN ngram_words nw ON nw.word_id = w.id
		 WHERE nw.ngram_id = ? ORDER BY nw.position`, ngramID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Word); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// NgramsForPhoto returns the n-grams attached to a photo.
func (s *Store) NgramsForPhoto(photoID int64) ([]Ngram, error) {
	rows, err := s.db.Query(
		`SELECT n.id, n.expression FROM ngrams n
		 JOIN photo_ngrams pn ON pn.ngram_id = n.id
		 WHERE pn.photo_id = ? ORDER BY n.expression`, photoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ngram
	for rows.Next() {
		var n Ngram
		if err := rows.Scan(&n.ID, &n.Expression); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
