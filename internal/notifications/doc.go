// Package notifications sends pipeline events to an ntfy topic.
//
// When no topic is configured the service degrades to a noop, so callers
// never branch on whether notifications are enabled.
package notifications
