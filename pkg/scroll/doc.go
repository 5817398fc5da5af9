// Package scroll decides when an infinitely scrolling page has surfaced all of
// its content. A Detector issues fixed wheel increments and keeps the last N
// vertical offsets; the page counts as exhausted once N consecutive readings
// are identical.
package scroll
