package semsim

import (
	"context"

	"github.com/botirk38/semsim/types"
)

// Save writes the IC table and the LCS memo to the configured snapshot
// store. A non-nil threshold keeps only LCS pairs scoring at least that much.
func (e *Engine) Save(ctx context.Context, threshold *float64) error {
	store, err := e.requireStore()
	if err != nil {
		return err
	}
	if err := e.SaveIC(ctx, store); err != nil {
		return err
	}
	return e.SaveLCS(ctx, store, threshold)
}

// Load replaces the IC table and the LCS memo with the snapshots in the
// configured store and freezes both. Both snapshots are validated before
// either is applied, so a failed Load leaves both caches untouched.
func (e *Engine) Load(ctx context.Context) error {
	store, err := e.requireStore()
	if err != nil {
		return err
	}
	icSnap, err := e.ic.Prepare(ctx, store)
	if err != nil {
		return err
	}
	lcsSnap, err := e.lcs.Prepare(ctx, store)
	if err != nil {
		return err
	}
	e.ic.Commit(icSnap)
	e.lcs.Commit(lcsSnap)
	return nil
}

// SaveLCS writes the LCS memo to store.
func (e *Engine) SaveLCS(ctx context.Context, store types.SnapshotStore, threshold *float64) error {
	return e.lcs.Save(ctx, store, threshold)
}

// LoadLCS loads the LCS memo from store. Afterwards a pair missing from the
// snapshot is reported as not found instead of being computed.
func (e *Engine) LoadLCS(ctx context.Context, store types.SnapshotStore) error {
	return e.lcs.Load(ctx, store)
}

// SaveIC writes every computed IC value to store.
func (e *Engine) SaveIC(ctx context.Context, store types.SnapshotStore) error {
	return e.ic.Save(ctx, store)
}

// LoadIC loads the IC table from store. Afterwards a term missing from the
// snapshot has no IC.
func (e *Engine) LoadIC(ctx context.Context, store types.SnapshotStore) error {
	return e.ic.Load(ctx, store)
}
