// Package models defines the core domain models for splitbill.
//
// # Models
//
//   - Item: one line on the receipt (name, unit price, quantity)
//   - Person: someone taking part in the split
//
// Allocation output lives in the calculator package; models only carries
// the inputs that every stage (ingestion, session, engine, CLI) shares.
//
// # Design Principles
//
//  1. Relationships by ID string: assignments reference items and people by
//     ID, never by pointer, so removing a Person cannot leave dangling
//     references the engine would trip over.
//  2. Signed amounts: prices may be negative (discount lines) and flow through
//     the arithmetic unchanged.
//  3. Items are treated as immutable once handed to the engine.
package models
