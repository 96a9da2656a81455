// Package types defines the bridge record, the storage capability
// interfaces, configuration, and standard errors for the jembatan
// inventory dashboard.
//
// Two capabilities back the dashboard: a RemoteStore (the live document
// collection) and a local key/value fallback that keeps the last full
// snapshot. Exactly one of them is the source of truth for a session.
package types
