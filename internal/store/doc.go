// Package store holds the process-wide, TTL-cached view of the environment
// and host metrics.
//
// A [Store] keeps one immutable [Entry]. Reads return it while it is younger
// than the TTL; the first reader to observe an expired entry refreshes it
// under the write lock, and readers that queued behind that refresh receive
// the new entry without refreshing again. Environment and system metrics are
// always swapped together, so an Entry never mixes data from two refreshes.
package store
