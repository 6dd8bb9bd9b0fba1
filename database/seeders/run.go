// Package seeders fills a fresh database with an admin and a small catalog.
// Seeders go through the services, so they obey the same rules as the API,
// and a second run skips rows that already exist.
//
// Define one in any file of this package:
//
//	func init() { Register("catalog", seedCatalog) }
//
// and run them with `greatsoko seed`.
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Rasmogul/greatsoko/app/services"
)

// Deps are the services seeders may use.
type Deps struct {
	Users    *services.UserService
	Products *services.ProductService
}

// SeederFunc is the signature of a seeder.
type SeederFunc func(ctx context.Context, d Deps, out io.Writer) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every seeder and stops on the first error.
func RunAll(ctx context.Context, d Deps, out io.Writer) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for _, e := range current {
		fmt.Fprintf(out, "  • %s … ", e.name)
		if err := e.fn(ctx, d, out); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
