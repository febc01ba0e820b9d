// Package classifier sends page text to an OpenAI-compatible chat completion
// endpoint and returns normalized atmospheric descriptor sets.
//
// Responses are requested as JSON objects and decoded tolerantly: code fences
// and prose around the payload are stripped before parsing. Transient HTTP
// failures are retried with linear backoff; 4xx responses other than 408 and
// 429 fail immediately.
package classifier
