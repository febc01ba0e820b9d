// Package pipeline orchestrates book processing end to end: classification,
// scene segmentation, soundscape matching, and persistence.
//
// A run drives one book through the status lifecycle while holding the
// process lock. Classification runs on a bounded worker pool; individual unit
// failures are recorded and tolerated until the configured failure rate is
// exceeded, at which point the run aborts and the book is marked failed.
package pipeline
