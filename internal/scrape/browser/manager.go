// Package browser owns the headless Chrome process used by browser-driven
// sources. One process, many tabs: a session is a tab, and a weighted
// semaphore keeps the number of live tabs at the configured pool size.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/phuslu/log"
	"golang.org/x/sync/semaphore"
)

type Config struct {
	PoolSize  int    // concurrent tabs, default 2
	Headful   bool   // show the browser; debugging only
	UserAgent string

	ShutdownGrace  time.Duration // wait for graceful tab close, default 5s
	StartupTimeout time.Duration // default 30s
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 2
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 5 * time.Second
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = 30 * time.Second
	}
	return c
}

type Manager struct {
	cfg Config
	log log.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	sem           *semaphore.Weighted

	mu     sync.Mutex
	closed bool
}

// NewManager launches Chrome and proves it responds before returning.
func NewManager(ctx context.Context, cfg Config, logger log.Logger) (*Manager, error) {
	cfg = cfg.withDefaults()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !cfg.Headful),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Listing pages render fine without images; skipping them keeps
		// page loads fast and the job boards' bandwidth bill low.
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.WindowSize(1366, 900),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	probeCtx, probeCancel := context.WithTimeout(browserCtx, cfg.StartupTimeout)
	defer probeCancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("chrome failed to start: %w", err)
	}

	logger.Info().
		Int("pool_size", cfg.PoolSize).
		Bool("headless", !cfg.Headful).
		Msg("browser ready")

	return &Manager{
		cfg:           cfg,
		log:           logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		sem:           semaphore.NewWeighted(int64(cfg.PoolSize)),
	}, nil
}

// Session opens a new tab, blocking while the pool is full. The caller
// must Close it.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		m.sem.Release(1)
		return nil, fmt.Errorf("browser manager is closed")
	}

	tabCtx, tabCancel := chromedp.NewContext(m.browserCtx)
	return &Session{
		ctx:     tabCtx,
		cancel:  tabCancel,
		grace:   m.cfg.ShutdownGrace,
		release: func() { m.sem.Release(1) },
	}, nil
}

// Close shuts the browser down, giving open tabs a bounded chance to
// finish cleanly before the process is killed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = chromedp.Cancel(m.browserCtx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		m.log.Warn().Msg("browser did not close cleanly, killing it")
	}

	m.browserCancel()
	m.allocCancel()
}
