package shared

// StockLockKey derives the advisory-lock key for a (product, unit) stock
// aggregate. Both ids are folded into one 64-bit key so the lock is taken
// with the single-argument pg_advisory_xact_lock. Collisions require ids
// beyond 2^32 and only cost extra serialization, never lost updates.
func StockLockKey(productID, unitQuantityID int64) int64 {
	return productID<<32 ^ unitQuantityID
}
