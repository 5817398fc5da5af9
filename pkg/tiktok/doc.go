// Package tiktok holds the upstream-facing pieces of the harvester: endpoint
// URLs and URL helpers, the immutable client Identity, and a Client for the
// comment listing API and media downloads.
//
// The Client is built on resty. Comment pages are parsed with gjson so that
// every required field is checked for presence; a missing field is a
// parsing error, never a silently defaulted value.
//
//	client := tiktok.NewClient(tiktok.NewIdentity(cfg.Client), cfg.Comments.RequestTimeout,
//	    cfg.Download.DownloadTimeout, log)
//	page, err := client.FetchComments(ctx, videoID, 0, 50)
package tiktok
