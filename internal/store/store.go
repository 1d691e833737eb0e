package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elonfeng/redinsight/pkg/engine"
	"github.com/elonfeng/redinsight/pkg/source"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// RankingSnapshot is a stored ranking board. Ranking is only filled by
// GetRanking; listings carry the summary columns.
type RankingSnapshot struct {
	ID              string                `db:"id" json:"id"`
	Category        string                `db:"category" json:"category"`
	ItemCount       int                   `db:"item_count" json:"item_count"`
	TotalEngagement int                   `db:"total_engagement" json:"total_engagement"`
	AvgScore        float64               `db:"avg_score" json:"avg_score"`
	PayloadJSON     string                `db:"payload" json:"-"`
	Ranking         *engine.RankingResult `db:"-" json:"ranking,omitempty"`
	GeneratedAt     string                `db:"generated_at" json:"generated_at"`
	CreatedAt       int64                 `db:"created_at" json:"-"`
}

// Store is the persistence interface.
type Store interface {
	SavePosts(ctx context.Context, keyword string, posts []source.Post) error
	CachedPosts(ctx context.Context, keyword string, since time.Time) ([]source.Post, error)

	SaveRanking(ctx context.Context, r engine.RankingResult) (*RankingSnapshot, error)
	ListRankings(ctx context.Context, category string, limit int) ([]RankingSnapshot, error)
	GetRanking(ctx context.Context, id string) (*RankingSnapshot, error)

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePosts replaces the cached posts of keyword, keeping their order.
func (s *SQLiteStore) SavePosts(ctx context.Context, keyword string, posts []source.Post) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save posts %q: %w", keyword, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM posts WHERE keyword = ?", keyword); err != nil {
		return fmt.Errorf("clear posts %q: %w", keyword, err)
	}

	cachedAt := s.now().UTC().UnixNano()
	for i, p := range posts {
		tagsJSON, err := json.Marshal(p.Tags)
		if err != nil {
			return fmt.Errorf("encode tags of post %s: %w", p.ID, err)
		}
		collectedAt := p.CollectedAt
		if collectedAt.IsZero() {
			collectedAt = s.now()
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (keyword, id, position, title, content, author, likes, comments, tags, url, platform, collected_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(keyword, id) DO NOTHING
		`, keyword, p.ID, i, p.Title, p.Content, p.Author, p.Likes, p.Comments,
			string(tagsJSON), p.URL, p.Platform, collectedAt.UTC(), cachedAt)
		if err != nil {
			return fmt.Errorf("insert post %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit posts %q: %w", keyword, err)
	}
	return nil
}

// CachedPosts returns the posts saved for keyword at or after since, in
// the order they were saved. No rows is not an error.
func (s *SQLiteStore) CachedPosts(ctx context.Context, keyword string, since time.Time) ([]source.Post, error) {
	var cutoff int64
	if !since.IsZero() {
		cutoff = since.UTC().UnixNano()
	}

	var posts []source.Post
	err := s.db.SelectContext(ctx, &posts, `
		SELECT id, title, content, author, likes, comments, tags, url, platform, collected_at
		FROM posts
		WHERE keyword = ? AND cached_at >= ?
		ORDER BY position
	`, keyword, cutoff)
	if err != nil {
		return nil, fmt.Errorf("cached posts %q: %w", keyword, err)
	}

	for i := range posts {
		if posts[i].TagsJSON != "" {
			if err := json.Unmarshal([]byte(posts[i].TagsJSON), &posts[i].Tags); err != nil {
				return nil, fmt.Errorf("decode tags of post %s: %w", posts[i].ID, err)
			}
		}
		posts[i].TagsJSON = ""
	}
	return posts, nil
}

// SaveRanking stores a ranking board under a fresh id.
func (s *SQLiteStore) SaveRanking(ctx context.Context, r engine.RankingResult) (*RankingSnapshot, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode ranking %s: %w", r.RankingType, err)
	}

	snap := &RankingSnapshot{
		ID:              uuid.NewString(),
		Category:        r.RankingType,
		ItemCount:       len(r.Items),
		TotalEngagement: r.TotalEngagement,
		AvgScore:        r.AvgScore,
		PayloadJSON:     string(payload),
		Ranking:         &r,
		GeneratedAt:     r.GeneratedAt,
		CreatedAt:       s.now().UTC().UnixNano(),
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO ranking_snapshots (id, category, item_count, total_engagement, avg_score, payload, generated_at, created_at)
		VALUES (:id, :category, :item_count, :total_engagement, :avg_score, :payload, :generated_at, :created_at)
	`, snap)
	if err != nil {
		return nil, fmt.Errorf("insert ranking %s: %w", r.RankingType, err)
	}
	return snap, nil
}

// ListRankings returns the newest snapshots first. An empty category lists
// every board.
func (s *SQLiteStore) ListRankings(ctx context.Context, category string, limit int) ([]RankingSnapshot, error) {
	query := "SELECT id, category, item_count, total_engagement, avg_score, generated_at, created_at FROM ranking_snapshots WHERE 1=1"
	var args []any

	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if limit <= 0 {
		limit = 20
	}
	query += " LIMIT ?"
	args = append(args, limit)

	snaps := []RankingSnapshot{}
	if err := s.db.SelectContext(ctx, &snaps, query, args...); err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	return snaps, nil
}

func (s *SQLiteStore) GetRanking(ctx context.Context, id string) (*RankingSnapshot, error) {
	var snap RankingSnapshot
	err := s.db.GetContext(ctx, &snap, "SELECT * FROM ranking_snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get ranking %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ranking %s: %w", id, err)
	}

	var r engine.RankingResult
	if err := json.Unmarshal([]byte(snap.PayloadJSON), &r); err != nil {
		return nil, fmt.Errorf("decode ranking %s: %w", id, err)
	}
	snap.Ranking = &r
	return &snap, nil
}
