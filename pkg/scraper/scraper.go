package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/browser"
	"ttscraper/pkg/config"
	"ttscraper/pkg/intercept"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
	"ttscraper/pkg/scroll"
	"ttscraper/pkg/storage"
	"ttscraper/pkg/tiktok"
)

// DriverFactory opens a fresh browser session for one harvest
type DriverFactory func(ctx context.Context) (browser.Driver, error)

// ChromeDriverFactory returns a factory launching headless Chrome with the
// configured browser settings and client user agent.
func ChromeDriverFactory(cfg *config.Config, log logger.Logger) DriverFactory {
	return func(ctx context.Context) (browser.Driver, error) {
		return browser.NewChromeDriver(ctx, cfg.Browser, cfg.Client.UserAgent, log)
	}
}

// Scraper harvests the media of profile pages
type Scraper struct {
	config      *config.Config
	newDriver   DriverFactory
	filter      *intercept.Filter
	extractor   *intercept.Extractor
	storage     *storage.Manager
	coordinator *downloader.Coordinator
	logger      logger.Logger
}

// New creates a Scraper. Media bodies are opened through source and every
// download notice goes to notifier, which may be nil.
func New(cfg *config.Config, newDriver DriverFactory, source downloader.MediaSource, notifier downloader.Notifier, log logger.Logger) (*Scraper, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if newDriver == nil {
		return nil, errors.New("driver factory is required")
	}
	if source == nil {
		return nil, errors.New("media source is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	manager, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	return &Scraper{
		config:      cfg,
		newDriver:   newDriver,
		filter:      intercept.NewFilter(cfg.Browser.ExcludedTypes, cfg.Browser.BlockedURLs),
		extractor:   intercept.NewExtractor(log),
		storage:     manager,
		coordinator: downloader.NewCoordinator(source, manager, notifier, cfg.Download.ConcurrentDownloads, log),
		logger:      log.WithField("component", "scraper"),
	}, nil
}

// Storage returns the storage manager downloads are written through
func (s *Scraper) Storage() *storage.Manager {
	return s.storage
}

// Totals returns the download outcomes of every harvest this Scraper ran
func (s *Scraper) Totals() map[downloader.Outcome]int {
	return s.coordinator.Counts()
}

// HarvestProfile opens the profile page of username, scrolls until the page
// stops growing and downloads the media of every item seen on the way.
// Response handlers and their downloads are joined before it returns, also
// when the context is cancelled or the scroll fails.
func (s *Scraper) HarvestProfile(ctx context.Context, username string) (Summary, error) {
	start := time.Now()
	username = tiktok.SanitizeUsername(username)
	if !tiktok.IsValidUsername(username) {
		return Summary{}, fmt.Errorf("invalid username %q", username)
	}

	session := &session{
		Summary: Summary{
			SessionID:  uuid.New().String(),
			Username:   username,
			ProfileURL: tiktok.ProfileURL(username, s.config.Browser.ProfileLanguage),
		},
		seen: downloader.NewSeenURLSet(),
	}
	log := s.logger.WithFields(map[string]interface{}{
		"session_id": session.SessionID,
		"username":   username,
	})

	log.InfoWithFields("Starting profile harvest", map[string]interface{}{
		"url":              session.ProfileURL,
		"stability_window": s.config.Browser.StabilityWindow,
		"concurrency":      s.config.Download.ConcurrentDownloads,
	})

	driver, err := s.newDriver(ctx)
	if err != nil {
		return session.Summary, fmt.Errorf("failed to start browser: %w", err)
	}
	driver.Route(s.filter.ShouldAllow)

	var handlers errgroup.Group
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for resp := range driver.Responses() {
			session.addResponse()
			handlers.Go(func() error {
				s.handleResponse(ctx, session, resp, log)
				return nil
			})
		}
	}()

	runErr := s.browse(ctx, driver, session, log)

	if err := driver.Close(); err != nil {
		log.WithError(err).Warn("Failed to close browser")
	}
	<-consumed
	_ = handlers.Wait()

	summary := session.snapshot()
	summary.Elapsed = time.Since(start)
	if files, err := s.storage.ListFiles(s.storage.UserDir(username)); err != nil {
		log.WithError(err).Warn("Failed to list profile folder")
	} else {
		summary.FilesOnDisk = len(files)
	}
	logger.LogHarvestSummary(log, summary.SessionID, username, summary.Items, summary.Scheduled, summary.AlreadyPresent, summary.Failed, summary.Elapsed)

	return summary, runErr
}

func (s *Scraper) browse(ctx context.Context, driver browser.Driver, session *session, log logger.Logger) error {
	if err := driver.Navigate(ctx, session.ProfileURL); err != nil {
		log.WithError(err).Error("Failed to open profile page")
		return fmt.Errorf("navigate to %s: %w", session.ProfileURL, err)
	}

	detector := scroll.NewDetector(driver, s.config.Browser.StabilityWindow, s.config.Browser.ScrollDeltaY, log)
	iterations, err := detector.Run(ctx, s.config.Browser.MaxScrollIterations)
	session.setScroll(iterations, detector.IsStable())

	switch {
	case errors.Is(err, scroll.ErrIterationLimit):
		log.WarnWithFields("Scroll iteration cap reached before the page settled", map[string]interface{}{
			"iterations": iterations,
		})
		return nil
	case err != nil:
		return fmt.Errorf("scroll profile page: %w", err)
	}

	log.DebugWithFields("Profile page settled", map[string]interface{}{
		"iterations": iterations,
	})
	return nil
}

// handleResponse extracts items from one response and waits for the burst of
// downloads it schedules.
func (s *Scraper) handleResponse(ctx context.Context, session *session, resp browser.Response, log logger.Logger) {
	items := s.extractor.Extract(resp)
	if len(items) == 0 {
		return
	}

	jobs := s.plan(session, items)
	session.addItems(len(items))
	if len(jobs) == 0 {
		return
	}

	log.DebugWithFields("Scheduling downloads", map[string]interface{}{
		"url":   resp.URL,
		"items": len(items),
		"jobs":  len(jobs),
	})
	session.addResults(s.coordinator.ScheduleBatch(ctx, jobs))
}

// plan turns items into download jobs, dropping items without media and
// media URLs this session already scheduled.
func (s *Scraper) plan(session *session, items []models.ContentItem) []downloader.Job {
	var jobs []downloader.Job
	for _, item := range items {
		if !item.HasMedia() {
			continue
		}
		if !session.seen.Add(item.Media.DownloadAddress) {
			session.addDuplicate()
			continue
		}

		owner := session.Username
		if author := tiktok.SanitizeUsername(item.Author.UniqueID); tiktok.IsValidUsername(author) {
			owner = author
		}
		jobs = append(jobs, downloader.Job{
			URL:       item.Media.DownloadAddress,
			Dir:       s.storage.UserDir(owner),
			Filename:  item.VideoFilename(),
			Username:  owner,
			SessionID: session.SessionID,
		})
	}
	return jobs
}

// Summary reports what one HarvestProfile call did
type Summary struct {
	SessionID        string
	Username         string
	ProfileURL       string
	Responses        int
	Items            int
	Duplicates       int
	Scheduled        int
	Downloaded       int
	AlreadyPresent   int
	Failed           int
	ScrollIterations int
	Settled          bool
	FilesOnDisk      int
	Elapsed          time.Duration
}

type session struct {
	mu sync.Mutex
	Summary
	seen *downloader.SeenURLSet
}

func (s *session) addResponse() {
	s.mu.Lock()
	s.Responses++
	s.mu.Unlock()
}

func (s *session) addItems(n int) {
	s.mu.Lock()
	s.Items += n
	s.mu.Unlock()
}

func (s *session) addDuplicate() {
	s.mu.Lock()
	s.Duplicates++
	s.mu.Unlock()
}

func (s *session) setScroll(iterations int, settled bool) {
	s.mu.Lock()
	s.ScrollIterations = iterations
	s.Settled = settled
	s.mu.Unlock()
}

func (s *session) addResults(results []downloader.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Scheduled += len(results)
	for _, r := range results {
		switch r.Outcome {
		case downloader.OutcomeDownloaded:
			s.Downloaded++
		case downloader.OutcomeAlreadyPresent:
			s.AlreadyPresent++
		default:
			s.Failed++
		}
	}
}

func (s *session) snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Summary
}
