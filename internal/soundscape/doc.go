// Package soundscape scores catalog assets against scene descriptors and
// selects the best soundscape for each scene.
//
// Scoring is pure and deterministic: the same descriptors and catalog always
// produce the same assignment. Keywords come from asset filenames, expanded
// through a static synonym table, and are weighed against setting, dominant
// elements, mood, and category.
package soundscape
