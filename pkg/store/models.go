package store

import "time"

// Source is a remote content origin tracked for incremental ingestion.
type Source struct {
	ID          int64
	URL         string
	Name        string
	Description string
	AvatarURL   string
	// LastSynced is the watermark below which content is assumed already
	// ingested. Defaults to the epoch so a never-synced source pulls
	// everything.
	LastSynced time.Time
}

// Photo is one ingested image. PhotoURL is globally unique and acts as the
// natural dedup key; re-ingesting the same URL never creates a second row.
type Photo struct {
	ID       int64
	SourceID int64 // 0 for orphan records
	PostURL  string
	PhotoURL string
	Posted   time.Time
	Title    string
	Caption  string
	Likes    int
	Deleted  bool
	Rating   int
}

// Tag is a normalized string label.
type Tag struct {
	ID  int64
	Tag string
}

// Word is a normalized single-token string.
type Word struct {
	ID   int64
	Word string
}

// WordAssociation links a Photo and a Word with an occurrence count.
type WordAssociation struct {
	PhotoID  int64
	WordID   int64
	Word     string
	Strength int
}

// Ngram is an ordered word sequence cached as its space-joined expression.
type Ngram struct {
	ID         int64
	Expression string
}
