package store

// migrationsSQL is the full schema, applied statement by statement on open.
// Every CREATE is IF NOT EXISTS so opening an existing database is a no-op.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS sources (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	last_synced TIMESTAMP NOT NULL DEFAULT '1970-01-01 00:00:00+00:00'
);

CREATE TABLE IF NOT EXISTS photos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL,
	post_url TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL UNIQUE,
	posted TIMESTAMP,
	title TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	likes INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	rating INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_photos_source ON photos(source_id);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tag TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS words (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	word TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS photo_tags (
	photo_id INTEGER NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	UNIQUE(photo_id, tag_id)
);

CREATE TABLE IF NOT EXISTS tag_words (
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	UNIQUE(tag_id, word_id)
);

CREATE TABLE IF NOT EXISTS word_associations (
	photo_id INTEGER NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
	word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	strength INTEGER NOT NULL DEFAULT 1,
	UNIQUE(photo_id, word_id)
);

CREATE TABLE IF NOT EXISTS ngrams (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	expression TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS ngram_words (
	ngram_id INTEGER NOT NULL REFERENCES ngrams(id) ON DELETE CASCADE,
	word_id INTEGER NOT NULL REFERENCES words(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	UNIQUE(ngram_id, position)
);

CREATE TABLE IF NOT EXISTS photo_ngrams (
	photo_id INTEGER NOT NULL REFERENCES photos(id) ON DELETE CASCADE,
	ngram_id INTEGER NOT NULL REFERENCES ngrams(id) ON DELETE CASCADE,
	UNIQUE(photo_id, ngram_id)
);
`
