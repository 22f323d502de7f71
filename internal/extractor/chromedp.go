package extractor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in a headless Chrome, one browser per render
// so no state leaks between references.
type ChromeRenderer struct {
	ExecPath string
	Timeout  time.Duration // navigation budget
	Settle   time.Duration // fixed wait after the network goes idle
	IdleWait time.Duration // longest wait for the network-idle signal
}

func NewChromeRenderer(execPath string, timeout, settle time.Duration) *ChromeRenderer {
	return &ChromeRenderer{ExecPath: execPath, Timeout: timeout, Settle: settle, IdleWait: 10 * time.Second}
}

func (r *ChromeRenderer) Name() string {
	return "chromedp"
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(viewportWidth, viewportHeight),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()
	bctx, cancelTimeout := context.WithTimeout(bctx, r.Timeout+r.IdleWait+r.Settle)
	defer cancelTimeout()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(bctx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkAlmostIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	start := time.Now()
	var html string
	err := chromedp.Run(bctx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// drop signals from the blank start page
			select {
			case <-idle:
			default:
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			navCtx, cancel := context.WithTimeout(ctx, r.Timeout)
			defer cancel()
			return chromedp.Navigate(url).Do(navCtx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
			case <-time.After(r.IdleWait):
				log.Printf("[Renderer] Network did not go idle within %v for %s, continuing", r.IdleWait, url)
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp render %s: %w", url, err)
	}

	log.Printf("[Renderer] Rendered %s in %v (%d bytes)", url, time.Since(start).Round(time.Millisecond), len(html))
	return NewPage(url, html)
}
