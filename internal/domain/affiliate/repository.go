package affiliate

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads affiliate identities from the identity subsystem.
// The reconciliation engine never writes affiliate records.
type Repository interface {
	// FindByID finds an affiliate identity by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Identity, error)

	// FindApprovedForTenant returns the approved affiliates for a tenant,
	// used to build the import matcher index. Pending and rejected
	// affiliates never receive merges, so the matcher must not see them.
	FindApprovedForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Identity, error)
}
