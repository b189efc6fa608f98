package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	Get(ctx context.Context, employeeID string, date time.Time) (*Record, error)
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
	// Create fails with ErrDuplicateRecord when the employee already has a
	// record for the date.
	Create(ctx context.Context, rec Record) (*Record, error)
	// Update writes rec only if the stored version still equals rec.Version
	// and returns ErrConflict otherwise. The returned record carries the new
	// version.
	Update(ctx context.Context, rec Record) (*Record, error)
}
