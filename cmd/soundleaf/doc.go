// Command soundleaf ingests books, runs the scene and soundscape pipeline,
// and inspects results.
package main
