// Package export implements the resumable batch export engine. It
// drives a paginated message source through an item processor, one item
// at a time in source order, checkpointing durable progress after every
// item attempt and every page so a partially completed run can be
// resumed with at-most-once output semantics.
//
// Duplicate prevention is identifier-based, not positional: an item is
// skipped iff its identifier is already in the checkpoint's processed
// set, so correctness does not depend on the source re-yielding items
// in the same order across runs.
package export
