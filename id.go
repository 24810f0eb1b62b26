package tuition

import "github.com/xraph/tuition/id"

// ID is the primary identifier type for all Tuition entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
