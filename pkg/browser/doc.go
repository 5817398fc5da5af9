// Package browser defines the Driver used to load a profile page and the
// chromedp-backed ChromeDriver implementing it.
//
// A Driver exposes exactly what harvesting needs: a request filter hook, a
// stream of finished responses with their bodies, navigation, a mouse-wheel
// primitive, a load-settled wait and the current vertical scroll offset.
package browser
