package patient

import "context"

// Repository is the patient lookup collaborator. The store owns patient
// identity; the import engine only reads.
type Repository interface {
	// LookupByIdentifier returns every patient registered under the given
	// identifier, attributes included. An empty identifier is the caller's
	// problem: the store treats it as unrestricted and would return
	// everyone.
	LookupByIdentifier(ctx context.Context, identifier string) ([]*Patient, error)
}
