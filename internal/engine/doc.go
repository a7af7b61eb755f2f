// Package engine provides the one-way synchronization engine from beads issues to Fizzy cards.
//
// Overview
//
// The engine package implements the core sync logic for bizzy. It reads
// issues from the beads SQLite database, decides per issue whether to
// create, update, or skip, and drives the Fizzy API accordingly. Sync state
// lives in a local ledger file so repeated runs only touch issues whose
// visible content changed.
//
// Architecture
//
// The engine sits between the issue reader and the Fizzy client:
//
//	Beads (.beads/beads.db)
//	     └── beads.Reader            → beads.Issue structs
//	                                      ↓
//	                                   Syncer
//	                 (checksum gate, create/update/skip, column cache)
//	                                      ↓
//	                                 fizzy.Client
//	                              (cards on the board)
//	                                      ↓
//	                               ledger.Ledger
//	                          (.fizzy-sync-state.json)
//
// Usage
//
// Basic usage:
//
//	// Load sync state
//	state, err := ledger.Load(".fizzy-sync-state.json")
//	if err != nil {
//	    return err
//	}
//
//	// Create syncer
//	syncer := engine.New(engine.Config{
//	    BoardID:           cfg.BoardID,
//	    AutoCreateColumns: true,
//	}, client, reader, state, nil)
//
//	// Full sync
//	result, err := syncer.SyncAll(ctx, false, false)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("created=%d updated=%d skipped=%d\n",
//	    result.Created, result.Updated, result.Skipped)
//
// Single issue:
//
//	// Column cache is only populated by SyncAll or EnsureColumns.
//	if err := syncer.EnsureColumns(ctx); err != nil {
//	    return err
//	}
//	outcome := syncer.SyncIssue(ctx, issue, false)
//
// Dry run:
//
//	// Classifies every issue without calling the API or writing the ledger.
//	result, err := syncer.SyncAll(ctx, false, true)
//
// Error Handling
//
// The syncer is resilient to individual issue failures:
//
//   - A failed issue becomes an error outcome; the batch continues
//   - Tag and untriage failures on a card are logged and ignored
//   - Reader and column bootstrap errors abort the batch
//
// Idempotency
//
// Sync decisions are driven by a content checksum stored in the ledger:
//
//   - Same issue content → skipped on the next run
//   - Changed content → the existing card is updated in place
//   - The ledger is only written after the card operation succeeds,
//     so a failed issue is retried on the next run
package engine
