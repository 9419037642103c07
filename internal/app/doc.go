// Package app is the per-context application object that user-facing code
// talks to.
//
// An App pairs one records.Service with one broadcast.Channel. It tracks
// whether the store is ready, announces every successful write on the
// channel so other contexts can reload, and holds the policies that sit
// between a view and the data layer: a blank search lists everyone, raw
// queries run read-only, and superseded searches are flagged stale.
package app
