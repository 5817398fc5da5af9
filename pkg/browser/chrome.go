package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"ttscraper/pkg/config"
	"ttscraper/pkg/logger"
)

const responseBuffer = 256

type pendingResponse struct {
	url          string
	status       int
	resourceType string
}

// ChromeDriver drives one Chrome tab through the DevTools protocol.
// Request interception uses the Fetch domain; response bodies are pulled
// with Network.getResponseBody once loading finished.
type ChromeDriver struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	width, height int

	logger    logger.Logger
	allow     RouteFunc
	enableOne sync.Once

	mu        sync.Mutex
	closed    bool
	pending   map[network.RequestID]pendingResponse
	inflight  sync.WaitGroup
	responses chan Response
	done      chan struct{}
}

// NewChromeDriver launches Chrome and opens a blank tab
func NewChromeDriver(ctx context.Context, cfg config.BrowserConfig, userAgent string, log logger.Logger) (*ChromeDriver, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("lang", cfg.Locale),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		ctx:           browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		width:         cfg.WindowWidth,
		height:        cfg.WindowHeight,
		logger:        log.WithField("component", "browser"),
		pending:       make(map[network.RequestID]pendingResponse),
		responses:     make(chan Response, responseBuffer),
		done:          make(chan struct{}),
	}

	chromedp.ListenTarget(browserCtx, d.onEvent)

	// The first Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	d.logger.InfoWithFields("Browser started", map[string]interface{}{
		"headless": cfg.Headless,
		"locale":   cfg.Locale,
	})
	return d, nil
}

// Route installs the request filter. Requests the filter rejects are failed
// with BlockedByClient; all others continue unchanged.
func (d *ChromeDriver) Route(allow RouteFunc) {
	d.allow = allow
}

// Responses returns the stream of finished responses
func (d *ChromeDriver) Responses() <-chan Response {
	return d.responses
}

// Navigate enables interception on first use and loads url
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	var enableErr error
	d.enableOne.Do(func() {
		actions := []chromedp.Action{network.Enable()}
		if d.allow != nil {
			actions = append(actions, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{URLPattern: "*"}}))
		}
		enableErr = d.run(ctx, actions...)
	})
	if enableErr != nil {
		return fmt.Errorf("failed to enable interception: %w", enableErr)
	}

	d.logger.DebugWithFields("Navigating", map[string]interface{}{"url": url})
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// MouseWheel dispatches a wheel event at the centre of the viewport
func (d *ChromeDriver) MouseWheel(ctx context.Context, deltaX, deltaY float64) error {
	x, y := float64(d.width)/2, float64(d.height)/2
	return d.run(ctx, input.DispatchMouseEvent(input.MouseWheel, x, y).
		WithDeltaX(deltaX).
		WithDeltaY(deltaY))
}

// WaitForLoadState blocks until the document body is ready
func (d *ChromeDriver) WaitForLoadState(ctx context.Context) error {
	return d.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery))
}

// ScrollY returns window.scrollY
func (d *ChromeDriver) ScrollY(ctx context.Context) (float64, error) {
	var y float64
	if err := d.run(ctx, chromedp.Evaluate(`window.scrollY`, &y)); err != nil {
		return 0, err
	}
	return y, nil
}

// Close shuts the browser down, waits for in-flight response reads and
// closes the Responses channel.
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	close(d.done)
	d.cancelBrowser()
	d.cancelAlloc()
	d.inflight.Wait()
	close(d.responses)

	d.logger.Info("Browser closed")
	return nil
}

// run executes actions on the tab and aborts them when ctx is cancelled
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (d *ChromeDriver) executor() context.Context {
	c := chromedp.FromContext(d.ctx)
	return cdp.WithExecutor(d.ctx, c.Target)
}

// onEvent runs on the protocol read loop and must not block
func (d *ChromeDriver) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *fetch.EventRequestPaused:
		if d.track() {
			go d.decide(e)
		}

	case *network.EventResponseReceived:
		d.mu.Lock()
		d.pending[e.RequestID] = pendingResponse{
			url:          e.Response.URL,
			status:       int(e.Response.Status),
			resourceType: strings.ToLower(string(e.Type)),
		}
		d.mu.Unlock()

	case *network.EventLoadingFinished:
		d.mu.Lock()
		p, ok := d.pending[e.RequestID]
		delete(d.pending, e.RequestID)
		d.mu.Unlock()
		if ok && d.track() {
			go d.emit(e.RequestID, p)
		}

	case *network.EventLoadingFailed:
		d.mu.Lock()
		delete(d.pending, e.RequestID)
		d.mu.Unlock()
	}
}

// track registers one in-flight goroutine unless the driver is closing
func (d *ChromeDriver) track() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.inflight.Add(1)
	return true
}

func (d *ChromeDriver) decide(e *fetch.EventRequestPaused) {
	defer d.inflight.Done()

	resourceType := strings.ToLower(string(e.ResourceType))
	allowed := d.allow == nil || d.allow(resourceType, e.Request.URL)

	var err error
	if allowed {
		err = fetch.ContinueRequest(e.RequestID).Do(d.executor())
	} else {
		err = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(d.executor())
	}
	if err != nil {
		d.logger.DebugWithFields("Request verdict not applied", map[string]interface{}{
			"url":     e.Request.URL,
			"allowed": allowed,
			"error":   err.Error(),
		})
	}
}

func (d *ChromeDriver) emit(id network.RequestID, p pendingResponse) {
	defer d.inflight.Done()

	body, err := network.GetResponseBody(id).Do(d.executor())
	if err != nil {
		// Bodies of redirects, preflights and evicted resources are unavailable.
		d.logger.DebugWithFields("Response body unavailable", map[string]interface{}{
			"url":   p.url,
			"error": err.Error(),
		})
		return
	}

	select {
	case d.responses <- Response{URL: p.url, Status: p.status, ResourceType: p.resourceType, Body: body}:
	case <-d.done:
	}
}
