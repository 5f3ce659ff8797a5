// Package domain holds the shared data contracts of the performance
// pipeline: normalized upload rows, persisted history snapshots, team
// overrides, roster entries, and the derived summary/classification shapes
// consumed by presentation and export collaborators.
//
// Types here are plain values with no behavior beyond small accessors, so
// every internal package and every external consumer agrees on the same
// shapes without importing pipeline internals.
package domain
