// Package core holds the loan-application domain.
//
// It is independent of any transport or file format and can be used by web
// handlers, CLI tools, or tests without modification.
//
// # Records and the Ledger
//
// A [Record] is one normalized application. A [Ledger] is the ordered set of
// records produced by one ingestion. Records are addressed by ID, never by
// position, and the ledger's size never changes for the life of a session.
//
// # Recomputation
//
// A [LiveTable] owns the edit surface. Every event runs the same pass:
//
//  1. [Apply] selects the visible records for the active [FilterSpec]
//  2. Edits ([LiveTable.Commit]) are written into the ledger by ID
//  3. [Aggregate] recomputes [KPIs] over the visible, edited records
//
// The pass is idempotent for a given ledger and filter.
//
// # Status
//
// [Status] values follow a display order from Solicitud to Entregada, with
// Rechazada and Cancelado as side exits. Transitions are not validated: any
// status may be set to any other, which allows manual correction.
package core
