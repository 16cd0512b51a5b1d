package persist

import (
	"context"
	"fmt"
)

// CorpseLootWALEntry records one loot-taken event before it is applied to
// the player's inventory, so a crash between the corpse mutation and the
// inventory write can't duplicate or drop an item. Only ids and
// quantities are stored, never live object references.
type CorpseLootWALEntry struct {
	CorpseID uint64
	LooterID uint64
	ItemID   uint32
	Qty      uint32
}

type WALRepo struct {
	db *DB
}

func NewWALRepo(db *DB) *WALRepo {
	return &WALRepo{db: db}
}

// WriteWAL atomically writes a batch of corpse-loot WAL entries in a
// single transaction. On failure the caller must not apply the loot to
// the looter's inventory.
func (r *WALRepo) WriteWAL(ctx context.Context, entries []CorpseLootWALEntry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("wal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO corpse_loot_wal (corpse_id, looter_id, item_id, qty)
			 VALUES ($1, $2, $3, $4)`,
			e.CorpseID, e.LooterID, e.ItemID, e.Qty,
		); err != nil {
			return fmt.Errorf("wal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkProcessed marks every pending WAL entry as processed. It does not
// apply or replay the entries; cmd/zoned calls it once at startup.
func (r *WALRepo) MarkProcessed(ctx context.Context) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE corpse_loot_wal SET processed = TRUE WHERE processed = FALSE`,
	)
	return err
}
