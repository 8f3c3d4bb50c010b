// Package planner reconciles a local inventory against a remote one.
//
// Planning runs in two phases. The local sequence (plus inline payloads) is
// drained first into a seeded map of Create items carrying their resolved cache
// policy. The remote sequence is then folded into a second map: keys present on
// both sides become Unchanged or Update by fingerprint, remote-only keys become
// Ignore, Delete or Unknown. The seeded map is never written during the fold.
// Finally items are stably sorted by action priority, cached items first.
package planner
