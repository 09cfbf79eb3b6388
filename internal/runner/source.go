package runner

import (
	"context"
	"fmt"
	"os"

	"github.com/punchamoorthee/settlebank/internal/domain"
	"github.com/punchamoorthee/settlebank/internal/feed"
	"github.com/punchamoorthee/settlebank/internal/store"
)

// LoadRegistrations reads path when it is set, otherwise the registrations
// table behind dbSource.
func LoadRegistrations(ctx context.Context, path, dbSource string) ([]domain.Registration, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open registration file: %w", err)
		}
		defer f.Close()
		return feed.ReadRegistrations(f)
	}
	if dbSource == "" {
		return nil, fmt.Errorf("no registration source configured")
	}

	db, err := store.NewPostgresRegistrations(ctx, dbSource)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Load(ctx)
}
