package store

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/yearly-summary/errors"
)

// ReadError marks err as a failed storage read
func ReadError(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %w", errors.StorageRead, fmt.Sprintf(format, args...), err)
}

// WriteError marks err as a failed storage write. Violations of a unique
// index are reported as duplicates.
func WriteError(err error, format string, args ...interface{}) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s: %w", errors.Duplicate, fmt.Sprintf(format, args...), err)
	}
	return fmt.Errorf("%w: %s: %w", errors.StorageWrite, fmt.Sprintf(format, args...), err)
}
