// Package intercept contains the two pieces that sit on the browser's network
// traffic: Filter, which decides which requests are worth making at all, and
// Extractor, which recognises item payloads among the responses.
package intercept
