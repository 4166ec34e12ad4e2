package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const popupWait = 8 * time.Second

// Session is one browser tab. Not safe for concurrent use; a scrape
// unit drives its tab from a single goroutine.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	grace   time.Duration
	release func()
	once    sync.Once
}

// Run executes actions in this tab. chromedp only honors the tab's own
// context, so the caller's deadline is enforced by cancelling the tab
// when it fires; the tab is unusable afterwards, which is fine because
// the unit that owned it is aborting anyway.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	return runTab(ctx, s.ctx, s.cancel, s.grace, actions...)
}

func runTab(callerCtx, tabCtx context.Context, cancel context.CancelFunc, grace time.Duration, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-callerCtx.Done():
		cancel()
		select {
		case <-done:
		case <-time.After(grace):
		}
		return callerCtx.Err()
	}
}

// ResolvePopup clicks sel, waits for the tab the click spawns, reads
// that tab's final URL and closes it. Job boards love opening employer
// pages in a fresh tab; the redirect target is the real posting URL.
func (s *Session) ResolvePopup(ctx context.Context, sel string) (string, error) {
	targetCh := chromedp.WaitNewTarget(s.ctx, func(info *target.Info) bool {
		return info.Type == "page"
	})

	if err := s.Run(ctx, chromedp.Click(sel, chromedp.NodeVisible)); err != nil {
		return "", fmt.Errorf("click %q: %w", sel, err)
	}

	var tid target.ID
	select {
	case tid = <-targetCh:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(popupWait):
		return "", fmt.Errorf("no popup after clicking %q", sel)
	}

	popupCtx, popupCancel := chromedp.NewContext(s.ctx, chromedp.WithTargetID(tid))
	defer popupCancel()

	var loc string
	err := runTab(ctx, popupCtx, popupCancel, s.grace,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&loc),
	)
	// Close the popup either way; the main tab stays usable.
	_ = chromedp.Run(popupCtx, page.Close())
	if err != nil {
		return "", fmt.Errorf("read popup location: %w", err)
	}
	return loc, nil
}

// Close tears the tab down, asking Chrome nicely first and cancelling
// hard if it dawdles. Safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		done := make(chan struct{})
		go func() {
			_ = chromedp.Cancel(s.ctx)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(s.grace):
			s.cancel()
		}
		s.release()
	})
}
