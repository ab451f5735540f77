package ports

import "context"

// IdentityResolver turns a bearer credential into the id of the owning user.
// The returned id is trusted as the tenant scope of every ledger call.
type IdentityResolver interface {
	// Resolve returns ErrUnauthenticated when the credential is missing,
	// malformed, expired or signed with the wrong key.
	Resolve(ctx context.Context, credential string) (string, error)
}
