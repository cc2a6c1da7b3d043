// Package domain defines the core entities of the transfer harness:
// records, chunks, delivery outcomes, run summaries, and the error
// taxonomy shared by every transport strategy.
package domain
