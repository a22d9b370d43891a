// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"errors"
	"fmt"
)

// Lookup failures fall into three kinds (prd002-lookup R4.1): a name the
// registry does not know, a name with several plausible registry entries,
// and a registry that cannot be reached at all. Callers branch with
// errors.Is / errors.As; the pipeline recovers from all three per reagent.
var (
	// ErrNotFound means the registry has no entry for the name or CASRN.
	ErrNotFound = errors.New("not found in registry")

	// ErrServiceUnavailable means the registry could not be queried:
	// network failure, malformed response, or a non-OK HTTP status.
	ErrServiceUnavailable = errors.New("registry unavailable")
)

// AmbiguousError reports a name lookup that matched several registry
// entries. Candidates preserves the registry's order.
type AmbiguousError struct {
	Name       string
	Candidates []Match
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous name %q: %d registry candidates", e.Name, len(e.Candidates))
}
