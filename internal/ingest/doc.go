// Package ingest turns loosely structured loan exports into a core.Ledger.
//
// A document passes through a fixed sequence:
//
//  1. [ReadSheet] decodes xlsx or CSV bytes into a [RawSheet]
//  2. [LocateHeader] finds the header among decorative leading rows
//  3. [Resolve] maps canonical fields to columns using [Synonyms]
//  4. Cells are normalized ([NormalizeAmount], [ParseDate]) and defaults applied
//  5. [DaysOpen] derives elapsed days against a caller-supplied instant
//
// [Pipeline] runs the sequence and returns either a [Result] or an *[Error]
// whose Kind is ParseFailure, HeaderNotFound or MissingRequiredColumns.
// [Cache] memoizes results by document fingerprint with a TTL.
package ingest
