// Package batch runs one tool operation over several IDs.
//
// Tools that accept "one or more" IDs parse them with ParseIDs, run the
// operation with Process and report per-item outcomes with FormatResults,
// so a partial failure never hides the items that succeeded.
package batch
