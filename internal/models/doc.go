// Package models defines the core domain models for Esusu.
//
// # Models
//
//   - Pot: a rotating savings group with a fixed per-cycle contribution
//   - Cycle: one payout round of a pot, including its bids and winner
//   - Deposit: one accepted member payment, kept as audit history
//   - Member: a registered member account
//   - Event: one entry in the append-only history log
//
// # Design Principles
//
// 1. **Integer money**: all amounts are int64 in the smallest currency unit.
// 2. **Avoid circular references**: pots and cycles refer to each other by
// numeric id, never by pointer. Ids are indices into append-only stores and
// are never reused.
// 3. **History is append-only**: deposits and events are never deleted; a
// reversed deposit only flips its Active flag.
package models
