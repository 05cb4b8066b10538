package repository

import (
	"errors"

	"github.com/lib/pq"

	"nutrisnap/internal/model"
)

// undefinedTable is the Postgres SQLSTATE for a relation that does not
// exist. A missing collection is a recoverable degraded-mode condition for
// the community feed, so it gets its own sentinel instead of a generic
// query error.
const undefinedTable = "42P01"

func mapCollectionError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return model.ErrCollectionMissing
	}
	return err
}
