// Package fetch drives the headless-browser crawl that produces the
// page snapshots the analysis pipeline runs on.
package fetch

import (
	"context"
	"sync"
	"time"

	"flowmapper/internal/analysis"
	"flowmapper/internal/config"
	"flowmapper/internal/domain"
	"flowmapper/internal/extract"
	"flowmapper/internal/monitoring"
	"flowmapper/internal/proxy"
	"flowmapper/internal/storage"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher crawls a site breadth-first with a pool of headless-browser
// workers and persists every page it sees.
type Fetcher struct {
	config     *config.Config
	pgStore    *storage.PostgresStore
	redisStore *storage.RedisStore
	extractor  *extract.Extractor
	proxies    *proxy.Manager
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	allocPool  sync.Pool
}

func NewFetcher(cfg *config.Config, ps *storage.PostgresStore, rs *storage.RedisStore, pm *proxy.Manager, m *monitoring.Metrics, l *zap.Logger) *Fetcher {
	f := &Fetcher{
		config:     cfg,
		pgStore:    ps,
		redisStore: rs,
		extractor:  extract.New(),
		proxies:    pm,
		metrics:    m,
		logger:     l,
	}
	f.allocPool.New = func() interface{} {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", ""),
			chromedp.Flag("disable-dev-shm-usage", ""),
			chromedp.UserAgent(f.proxies.UserAgent()),
		)
		if p := f.proxies.NextProxy(); p != "" {
			opts = append(opts, chromedp.ProxyServer(p))
		}
		allocCtx, _ := chromedp.NewExecAllocator(context.Background(), opts...)
		return allocCtx
	}
	return f
}

type frontierEntry struct {
	url   string
	depth int
}

// Crawl walks the site breadth-first from startURL, staying on the
// start domain and bounded by the configured depth and page budget.
// Pages of one depth level are fetched concurrently but persisted in
// frontier order, so the stored snapshot keeps a deterministic
// discovery order with the start page first.
func (f *Fetcher) Crawl(ctx context.Context, crawlID int64, startURL string) error {
	start := analysis.NormalizeURL(startURL)
	site := analysis.Domain(start)

	visited := map[string]struct{}{start: {}}
	frontier := []frontierEntry{{url: start, depth: 0}}
	budget := f.config.MaxCrawlPages

	for depth := 0; depth <= f.config.MaxCrawlDepth && len(frontier) > 0 && budget > 0; depth++ {
		if len(frontier) > budget {
			frontier = frontier[:budget]
		}

		pages := make([]*domain.PageRecord, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(f.config.FetchWorkers)
		for i, entry := range frontier {
			g.Go(func() error {
				page, err := f.fetchPage(gctx, entry.url, entry.depth)
				if err != nil {
					f.metrics.IncFetchErrors("navigate_failed")
					f.logger.Warn("failed to fetch page",
						zap.String("url", entry.url), zap.Int("depth", entry.depth), zap.Error(err))
					return nil // one bad page never sinks the crawl
				}
				pages[i] = page
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		var next []frontierEntry
		for _, page := range pages {
			if page == nil {
				continue
			}
			budget--
			f.metrics.IncPagesFetched()
			if err := f.pgStore.SavePage(ctx, crawlID, page); err != nil {
				f.metrics.IncFetchErrors("db_save_failed")
				f.logger.Error("failed to save page", zap.String("url", page.URL), zap.Error(err))
				continue
			}
			for _, l := range page.OutgoingLinks {
				if analysis.Domain(l.Href) != site {
					continue
				}
				if _, seen := visited[l.Href]; seen {
					continue
				}
				visited[l.Href] = struct{}{}
				next = append(next, frontierEntry{url: l.Href, depth: page.Depth + 1})
			}
		}
		frontier = next
	}

	ttl := time.Duration(f.config.DeduplicationDays) * 24 * time.Hour
	if err := f.redisStore.MarkAsCrawled(ctx, start, ttl); err != nil {
		f.logger.Warn("failed to mark crawl in redis", zap.String("url", start), zap.Error(err))
	}

	f.logger.Info("crawl finished",
		zap.Int64("crawl_id", crawlID),
		zap.String("start_url", start),
		zap.Int("pages", f.config.MaxCrawlPages-budget))
	return nil
}

// fetchPage renders one URL in a pooled browser context and extracts
// its page record.
func (f *Fetcher) fetchPage(ctx context.Context, url string, depth int) (*domain.PageRecord, error) {
	allocCtx := f.allocPool.Get().(context.Context)
	defer f.allocPool.Put(allocCtx)

	taskCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, time.Duration(f.config.FetchTimeout)*time.Second)
	defer cancelTimeout()

	var htmlContent string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return f.extractor.Page(url, htmlContent, depth)
}
