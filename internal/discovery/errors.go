package discovery

import "fmt"

// Collaborator operations.
const (
	OpEmbed  = "embed"
	OpSearch = "search"
	OpStore  = "store"
)

// CollaboratorError reports a failed call to the embedding service, the
// vector index or the relational store.
type CollaboratorError struct {
	Op string
	// Target names the collection or store method involved.
	Target string
	Err    error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
