package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/protosskai/RssReader/app/database"
	"github.com/protosskai/RssReader/app/feed"
	"github.com/protosskai/RssReader/app/fetch"
)

// Fetcher retrieves a feed body. Satisfied by *fetch.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts fetch.Options) ([]byte, error)
}

// Decoder turns a raw feed body into canonical post records. Satisfied by
// *feed.Parser.
type Decoder interface {
	Decode(data []byte) (*feed.Metadata, []feed.PostRecord, error)
}

// Stats summarizes one full sync pass.
type Stats struct {
	Total       int       `json:"total"`
	Success     int       `json:"success"`
	Failure     int       `json:"failure"`
	NewArticles int       `json:"new_articles"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Status reports the orchestrator state.
type Status struct {
	Enabled  bool   `json:"enabled"`
	Interval int    `json:"interval"`
	Running  bool   `json:"running"`
	Syncing  bool   `json:"syncing"`
	LastSync *Stats `json:"last_sync,omitempty"`
}

// Orchestrator keeps all subscribed sources fresh. Fetches for distinct
// sources run concurrently in fixed-size batches; ingestion funnels through
// the single-writer storage path. One broken source never aborts a pass.
type Orchestrator struct {
	sources    database.SourceRepository
	articles   database.ArticleRepository
	fetcher    Fetcher
	decoder    Decoder
	notifier   Notifier
	configPath string
	cacheTTL   time.Duration

	syncing atomic.Bool

	mu       sync.Mutex
	config   Config
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastSync *Stats
}

func NewOrchestrator(sources database.SourceRepository, articles database.ArticleRepository,
	fetcher Fetcher, decoder Decoder, notifier Notifier, config Config, configPath string,
	cacheTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		sources:    sources,
		articles:   articles,
		fetcher:    fetcher,
		decoder:    decoder,
		notifier:   notifier,
		config:     config,
		configPath: configPath,
		cacheTTL:   cacheTTL,
	}
}

// SyncAll fetches and ingests every subscribed source once. It is
// single-flight: a call made while a sync is already running returns zero
// stats immediately instead of queuing. Per-source failures are recorded in
// the stats, never propagated; only an unreadable source list is a hard
// error.
func (o *Orchestrator) SyncAll(ctx context.Context) (Stats, error) {
	if !o.syncing.CompareAndSwap(false, true) {
		slog.Info("Sync already in progress, skipping")
		return Stats{}, nil
	}
	defer o.syncing.Store(false)

	sources, err := o.sources.GetAllSources()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load source list: %w", err)
	}

	config := o.GetConfig()
	stats := Stats{Total: len(sources)}

	slog.Info("Starting sync", "sources", stats.Total, "batch_size", config.BatchSize)

	var statsMu sync.Mutex
	for _, batch := range createBatches(sources, config.BatchSize) {
		var wg sync.WaitGroup
		for _, source := range batch {
			wg.Add(1)
			go func(src database.Source) {
				defer wg.Done()

				newCount, err := o.syncSource(ctx, src)

				statsMu.Lock()
				defer statsMu.Unlock()
				if err != nil {
					stats.Failure++
					slog.Error("Failed to sync source", "source_id", src.SourceID, "title", src.Title, "error", err)
					return
				}
				stats.Success++
				stats.NewArticles += newCount
			}(source)
		}
		wg.Wait()
	}

	stats.FinishedAt = time.Now()

	o.mu.Lock()
	statsCopy := stats
	o.lastSync = &statsCopy
	o.mu.Unlock()

	slog.Info("Sync completed",
		"total", stats.Total,
		"success", stats.Success,
		"failure", stats.Failure,
		"new_articles", stats.NewArticles)

	if config.Notification && stats.NewArticles > 0 {
		o.notifier.Notify("Sync completed", fmt.Sprintf("%d new articles fetched", stats.NewArticles))
	}

	return stats, nil
}

func (o *Orchestrator) syncSource(ctx context.Context, src database.Source) (int, error) {
	body, err := o.fetcher.Fetch(ctx, src.FeedURL, fetch.Options{UseCache: true, TTL: o.cacheTTL})
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	_, records, err := o.decoder.Decode(body)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	posts := make([]database.Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, database.Post{
			GUID:           record.GUID,
			Title:          record.Title,
			Author:         record.Author,
			Link:           record.Link,
			Description:    record.Description,
			ContentEncoded: record.ContentEncoded,
			UpdateTime:     record.PubDate,
		})
	}

	newCount, err := o.articles.IngestArticles(src.SourceID, posts)
	if err != nil {
		return 0, fmt.Errorf("ingest: %w", err)
	}

	return newCount, nil
}

// StartAutoSync schedules recurring syncs at the configured interval. A
// running timer is restarted; when the configuration has auto-sync disabled,
// nothing is scheduled. With SyncOnStartup set, one immediate pass fires
// before the first tick.
func (o *Orchestrator) StartAutoSync() {
	o.StopAutoSync()

	o.mu.Lock()
	config := o.config
	if !config.Enabled {
		o.mu.Unlock()
		slog.Info("Auto sync is disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	slog.Info("Auto sync started", "interval_minutes", config.Interval)
	go o.autoSyncLoop(ctx, time.Duration(config.Interval)*time.Minute, config.SyncOnStartup)
}

func (o *Orchestrator) autoSyncLoop(ctx context.Context, interval time.Duration, syncOnStartup bool) {
	defer o.wg.Done()

	if syncOnStartup {
		if _, err := o.SyncAll(ctx); err != nil {
			slog.Error("Startup sync failed", "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.SyncAll(ctx); err != nil {
				slog.Error("Auto sync failed", "error", err)
			}
		}
	}
}

// StopAutoSync cancels the recurring timer and waits for the loop to exit.
// Calling it while stopped is a no-op.
func (o *Orchestrator) StopAutoSync() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		o.wg.Wait()
		slog.Info("Auto sync stopped")
	}
}

// GetConfig returns a copy of the current sync configuration.
func (o *Orchestrator) GetConfig() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.config
}

// UpdateConfig persists the new configuration and restarts (or stops) the
// auto-sync timer to match it.
func (o *Orchestrator) UpdateConfig(config Config) error {
	config.normalize()

	o.mu.Lock()
	o.config = config
	path := o.configPath
	o.mu.Unlock()

	if path != "" {
		if err := SaveConfig(path, config); err != nil {
			return err
		}
	}

	if config.Enabled {
		o.StartAutoSync()
	} else {
		o.StopAutoSync()
	}
	return nil
}

// GetStatus reports the orchestrator state and the stats of the last
// completed pass.
func (o *Orchestrator) GetStatus() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return Status{
		Enabled:  o.config.Enabled,
		Interval: o.config.Interval,
		Running:  o.cancel != nil,
		Syncing:  o.syncing.Load(),
		LastSync: o.lastSync,
	}
}

func createBatches(sources []database.Source, batchSize int) [][]database.Source {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]database.Source
	for i := 0; i < len(sources); i += batchSize {
		end := i + batchSize
		if end > len(sources) {
			end = len(sources)
		}
		batches = append(batches, sources[i:end])
	}
	return batches
}
