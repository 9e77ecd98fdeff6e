// Package photoindex provides the photo sources the cleanup engine reads
// collections from: a local directory tree and a PhotoPrism MariaDB. The
// engine itself only ever sees catalog.Photo records; fetching bytes for
// analysis goes through Open.
package photoindex

import (
	"context"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
)

// Collection is a named photo set available for cleanup: an album or a
// synthetic month grouping.
type Collection struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PhotoCount int    `json:"photo_count"`
}

// Source lists collections and their photos and fetches photo content.
type Source interface {
	// Collections returns the collections this source offers.
	Collections(ctx context.Context) ([]Collection, error)

	// Photos returns a collection's photos in capture order. Unknown
	// collection IDs return an empty list, not an error.
	Photos(ctx context.Context, collectionID string) ([]catalog.Photo, error)

	// Open fetches the raw bytes of a photo for analysis.
	Open(ctx context.Context, photo catalog.Photo) ([]byte, error)
}
