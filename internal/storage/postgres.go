package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"flowmapper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore handles interactions with the PostgreSQL database.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

// CreateCrawl registers a new crawl run and returns its id.
func (s *PostgresStore) CreateCrawl(ctx context.Context, startURL string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx,
		`INSERT INTO crawls (start_url, status) VALUES ($1, 'running') RETURNING id`,
		startURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create crawl: %w", err)
	}
	return id, nil
}

// FinishCrawl marks a crawl run as completed or failed.
func (s *PostgresStore) FinishCrawl(ctx context.Context, crawlID int64, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE crawls SET status = $2, finished_at = NOW() WHERE id = $1`,
		crawlID, status)
	return err
}

// SavePage stores one crawled page and its links within a single
// transaction. Link rows carry an explicit ordinal so extraction
// order survives the round trip.
func (s *PostgresStore) SavePage(ctx context.Context, crawlID int64, page *domain.PageRecord) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var pageID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO crawl_pages (crawl_id, url, title, depth, language, crawled_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (crawl_id, url) DO UPDATE SET
		   title = EXCLUDED.title, depth = EXCLUDED.depth, language = EXCLUDED.language, crawled_at = EXCLUDED.crawled_at
		 RETURNING id`,
		crawlID, page.URL, page.Title, page.Depth, page.Language, page.CrawledAt,
	).Scan(&pageID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM crawl_links WHERE page_id = $1`, pageID); err != nil {
		return err
	}

	if len(page.OutgoingLinks) > 0 {
		batch := &pgx.Batch{}
		for i, l := range page.OutgoingLinks {
			batch.Queue(
				`INSERT INTO crawl_links (page_id, ord, href, text, position, context)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				pageID, i, l.Href, l.Text, string(l.Position), l.Context)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// LoadPages reconstructs a crawl's page set. Pages come back ordered
// by insertion id and links by their stored ordinal, so discovery
// order is preserved exactly.
func (s *PostgresStore) LoadPages(ctx context.Context, crawlID int64) (*domain.PageSet, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, url, title, depth, language, crawled_at
		 FROM crawl_pages WHERE crawl_id = $1 ORDER BY id`,
		crawlID)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	set := domain.NewPageSet()
	pageIDs := make(map[int64]string)
	for rows.Next() {
		var id int64
		page := &domain.PageRecord{}
		if err := rows.Scan(&id, &page.URL, &page.Title, &page.Depth, &page.Language, &page.CrawledAt); err != nil {
			return nil, err
		}
		set.Put(page)
		pageIDs[id] = page.URL
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := s.db.Query(ctx,
		`SELECT l.page_id, l.href, l.text, l.position, l.context
		 FROM crawl_links l JOIN crawl_pages p ON p.id = l.page_id
		 WHERE p.crawl_id = $1 ORDER BY l.page_id, l.ord`,
		crawlID)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var pageID int64
		var l domain.LinkRecord
		var pos string
		if err := linkRows.Scan(&pageID, &l.Href, &l.Text, &pos, &l.Context); err != nil {
			return nil, err
		}
		l.Position = domain.LinkPosition(pos)
		if url, ok := pageIDs[pageID]; ok {
			if page, ok := set.Get(url); ok {
				page.OutgoingLinks = append(page.OutgoingLinks, l)
			}
		}
	}
	return set, linkRows.Err()
}

// GetCrawlStartURL returns the start URL of a crawl, or ErrNotFound.
func (s *PostgresStore) GetCrawlStartURL(ctx context.Context, crawlID int64) (string, error) {
	var startURL string
	err := s.db.QueryRow(ctx,
		`SELECT start_url FROM crawls WHERE id = $1`, crawlID,
	).Scan(&startURL)
	if err == pgx.ErrNoRows {
		return "", ErrNotFound
	}
	return startURL, err
}

// SaveFlow persists a computed user flow as JSONB next to its crawl.
func (s *PostgresStore) SaveFlow(ctx context.Context, crawlID int64, flow *domain.UserFlow) error {
	payload, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO user_flows (crawl_id, flow, created_at) VALUES ($1, $2, NOW())
		 ON CONFLICT (crawl_id) DO UPDATE SET flow = EXCLUDED.flow, created_at = NOW()`,
		crawlID, payload)
	return err
}

// ErrNotFound reports a missing row without leaking driver details.
var ErrNotFound = fmt.Errorf("not found")
