package solana

import "context"

// RPCClient defines the Solana RPC calls used for balance gating.
type RPCClient interface {
	// GetTokenAccountsByOwner lists the owner's token accounts for one mint.
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) ([]TokenAccount, error)

	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetSlot returns the current slot. Used as a health probe.
	GetSlot(ctx context.Context) (int64, error)
}
