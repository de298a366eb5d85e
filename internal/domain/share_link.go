package domain

// ShareLink maps a short deterministic id to an address.
// Corresponds to share_links table in PostgreSQL.
type ShareLink struct {
	ID        string // PRIMARY KEY, idhash.ComputeShareID(Address)
	Address   string // validated address
	CreatedAt int64  // record creation timestamp (ms)
}
