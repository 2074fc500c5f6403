package lookup

import "github.com/dukerupert/zipfinder/internal/domain"

// ErrLookupInProgress is returned by Submit while the page already has a lookup in flight.
var ErrLookupInProgress = domain.Conflict("lookup.submit", "A lookup is already in progress")
