package modules

import "context"

// Store lists and removes committed modules.
type Store interface {
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, module string) error
}
