// Package service holds the operations of a Fabrica library: books and
// chapters, artisans, collections, settings, generation runs and the
// import, export and backup of the whole library.
package service

import (
	"context"

	"github.com/fabricaapp/fabrica-server/internal/errors"
)

// storeErr reports a failed store call as a persistence error. Domain errors
// returned from inside a mutation and context errors pass through unchanged.
func storeErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var domainErr *errors.Error
	if errors.As(err, &domainErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Persistence(err, msg)
}
