package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"

	"github.com/runnerr0/btr/internal/storage"
)

var (
	// ErrStoreNotFound means a required store path does not reference an
	// existing file. The message names the override key to set.
	ErrStoreNotFound = goerr.New("store not found")
	// ErrStoreUnreadable means the store exists but could not be read: it is
	// locked, corrupt, of a different schema, or not permitted.
	ErrStoreUnreadable = goerr.New("store unreadable")
	// ErrUnsupportedBrowser means no extractor exists for the browser.
	ErrUnsupportedBrowser = goerr.New("unsupported browser")
)

// openStore opens src through the storage boundary, translating its errors
// into the typed errors callers branch on.
func openStore(ctx context.Context, kind Kind, src Source) (*storage.Store, error) {
	store, err := storage.Open(ctx, src.Path)
	if err == nil {
		return store, nil
	}

	if errors.Is(err, storage.ErrNotFound) {
		return nil, goerr.Wrap(ErrStoreNotFound,
			fmt.Sprintf("cannot locate %s store (%v); %s", kind, err, remedy(kind, src)),
			goerr.V("kind", kind), goerr.V("path", src.Path), goerr.V("override", src.Override))
	}
	return nil, unreadable(kind, src, err)
}

func unreadable(kind Kind, src Source, err error) error {
	return goerr.Wrap(ErrStoreUnreadable,
		fmt.Sprintf("cannot read %s store %s (%v)", kind, src.Path, err),
		goerr.V("kind", kind), goerr.V("path", src.Path), goerr.V("override", src.Override))
}

func remedy(kind Kind, src Source) string {
	if src.Override == "" {
		return fmt.Sprintf("pass --%s with the store path", kind)
	}
	return fmt.Sprintf("set %s in the config file or pass --%s", src.Override, kind)
}
