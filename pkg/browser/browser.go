package browser

import (
	"context"
	"encoding/json"
)

// RouteFunc decides whether an outgoing request may proceed.
// resourceType is lower-case ("document", "xhr", "image", ...).
type RouteFunc func(resourceType, url string) bool

// Response is a finished network response observed by the driver
type Response struct {
	URL          string
	Status       int
	ResourceType string
	Body         []byte
}

// Text returns the body decoded as text
func (r Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v
func (r Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// IsRedirect reports whether the response is a 3xx redirect
func (r Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// Driver is a single browser page. Route must be installed before Navigate.
// Responses delivers every finished response until Close is called, after
// which the channel is closed.
type Driver interface {
	Route(allow RouteFunc)
	Responses() <-chan Response
	Navigate(ctx context.Context, url string) error
	MouseWheel(ctx context.Context, deltaX, deltaY float64) error
	WaitForLoadState(ctx context.Context) error
	ScrollY(ctx context.Context) (float64, error)
	Close() error
}
