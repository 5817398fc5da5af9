// Package scraper ties the browser, extraction and download layers together.
//
// A profile harvest opens one browser page with the resource filter installed,
// feeds every finished response through the extractor, and schedules the
// media of each newly seen item on the download coordinator. The page is
// scrolled until its offset stops changing; the harvest then closes the
// browser and waits for every response handler and download before returning
// a Summary.
//
// Usage:
//
//	cfg, _ := config.Load("", nil)
//	client := tiktok.NewClient(tiktok.NewIdentity(cfg.Client), cfg.Comments.RequestTimeout, cfg.Download.DownloadTimeout, nil)
//	s, err := scraper.New(cfg, scraper.ChromeDriverFactory(cfg, nil), client, ui.NewConsoleNotices(nil), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	summary, err := s.HarvestProfile(ctx, "some_user")
//
// HarvestComments is the independent comment path: it pages a video's
// comments and replies through a comments.Transport into a sink.
package scraper
