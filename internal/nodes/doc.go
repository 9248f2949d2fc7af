// Package nodes is the service layer tying chunking, synthesis,
// storage, and optional embedding together behind a single Manager.
//
// Conversion is the central operation: a Context whose content
// exceeds the token threshold is split on natural boundaries, each
// chunk is synthesized into a ContextNode carrying a token count,
// importance score, summary, keywords, and classification, and the
// whole batch is persisted atomically. Node IDs are deterministic,
// derived from the parent context ID and chunk position, so repeated
// conversion of the same context is idempotent at the ID level.
//
// Read operations treat missing data as empty results: fetching nodes
// for an unknown context returns an empty slice and fetching a single
// unknown node returns nil without an error. Updates are strict and
// fail on missing nodes. Storage failures are wrapped, logged, and
// returned to the caller.
package nodes
