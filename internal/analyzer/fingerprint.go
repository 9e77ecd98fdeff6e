package analyzer

import (
	"context"
	"fmt"

	"github.com/kozaktomas/photo-cleanup/internal/catalog"
	"github.com/kozaktomas/photo-cleanup/internal/fingerprint"
)

// ImageOpener fetches the raw bytes of a photo so hashes can be computed.
// Implementations read from disk, PhotoPrism, or wherever SourceRef points.
type ImageOpener func(ctx context.Context, photo catalog.Photo) ([]byte, error)

// FingerprintAnalyzer groups photos by perceptual hash similarity. It works
// without any precomputed state, at the cost of decoding every photo.
type FingerprintAnalyzer struct {
	open             ImageOpener
	hammingThreshold int
}

// NewFingerprintAnalyzer creates an analyzer that decodes photos through
// open and groups them when either hash is within hammingThreshold bits.
func NewFingerprintAnalyzer(open ImageOpener, hammingThreshold int) *FingerprintAnalyzer {
	return &FingerprintAnalyzer{
		open:             open,
		hammingThreshold: hammingThreshold,
	}
}

// Analyze hashes every photo and clusters near-duplicates. Photos that fail
// to open or decode are skipped rather than failing the whole collection;
// hashing dominates the runtime so progress tracks the hashing loop.
func (a *FingerprintAnalyzer) Analyze(ctx context.Context, collectionID string, photos []catalog.Photo, onProgress func(float64)) ([]catalog.Group, error) {
	progress := newProgressReporter(onProgress)

	type hashedPhoto struct {
		uid    string
		hashes fingerprint.Hashes
	}

	hashed := make([]hashedPhoto, 0, len(photos))
	for i, photo := range photos {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis of collection %s cancelled: %w", collectionID, err)
		}

		data, err := a.open(ctx, photo)
		if err != nil {
			progress.report(0.9 * float64(i+1) / float64(len(photos)))
			continue
		}
		hashes, err := fingerprint.Compute(data)
		if err != nil {
			progress.report(0.9 * float64(i+1) / float64(len(photos)))
			continue
		}

		hashed = append(hashed, hashedPhoto{uid: photo.UID, hashes: hashes})
		progress.report(0.9 * float64(i+1) / float64(len(photos)))
	}

	uids := make([]string, len(hashed))
	for i, h := range hashed {
		uids[i] = h.uid
	}
	uf := newUnionFind(uids)

	for i := range hashed {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("analysis of collection %s cancelled: %w", collectionID, err)
		}
		for j := i + 1; j < len(hashed); j++ {
			if a.similar(hashed[i].hashes, hashed[j].hashes) {
				uf.union(hashed[i].uid, hashed[j].uid)
			}
		}
	}

	groups := groupsFromClusters(uf, photos)
	progress.report(1)
	return groups, nil
}

// similar reports whether two photos are near-duplicates. Both hashes must
// agree: pHash alone confuses low-texture images, dHash alone confuses
// images with the same gradient structure.
func (a *FingerprintAnalyzer) similar(h1, h2 fingerprint.Hashes) bool {
	return fingerprint.Similar(h1.PHash, h2.PHash, a.hammingThreshold) &&
		fingerprint.Similar(h1.DHash, h2.DHash, a.hammingThreshold)
}
