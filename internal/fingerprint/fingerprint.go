// Package fingerprint computes perceptual hashes for photos. Two photos
// whose hashes lie within a small Hamming distance are near-duplicates for
// the purposes of cleanup grouping.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Hashes holds the perceptual hashes computed for one image.
type Hashes struct {
	PHash uint64 // DCT-based perceptual hash
	DHash uint64 // horizontal gradient hash
}

// PHashHex returns the pHash as a 16-character hex string.
func (h Hashes) PHashHex() string { return fmt.Sprintf("%016x", h.PHash) }

// DHashHex returns the dHash as a 16-character hex string.
func (h Hashes) DHashHex() string { return fmt.Sprintf("%016x", h.DHash) }

// Compute decodes an image and computes both perceptual hashes.
func Compute(imageData []byte) (Hashes, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return Hashes{}, fmt.Errorf("failed to decode image: %w", err)
	}

	return Hashes{
		PHash: computePHash(img),
		DHash: computeDHash(img),
	}, nil
}

// HammingDistance computes the Hamming distance between two 64-bit hashes.
func HammingDistance(hash1, hash2 uint64) int {
	xor := hash1 ^ hash2
	distance := 0
	for xor != 0 {
		distance++
		xor &= xor - 1 // clear lowest set bit
	}
	return distance
}

// Similar returns true if two hashes are within the given Hamming threshold.
// A threshold of 10 is typically used for near-duplicate detection.
func Similar(hash1, hash2 uint64, threshold int) bool {
	return HammingDistance(hash1, hash2) <= threshold
}

// computePHash computes a 64-bit DCT-based perceptual hash: resize to 32x32
// grayscale, take the low-frequency 8x8 DCT block without the DC component,
// and emit one bit per coefficient above the block median.
func computePHash(img image.Image) uint64 {
	gray := grayscale(resize(img, 32, 32))
	dct := dct2d(gray)

	// The median excludes the DC component, which would otherwise dominate.
	acCoeffs := make([]float64, 0, 63)
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			if u == 0 && v == 0 {
				continue
			}
			acCoeffs = append(acCoeffs, dct[u][v])
		}
	}
	median := medianOf(acCoeffs)

	var hash uint64
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			if dct[u][v] > median {
				hash |= 1 << (63 - (u*8 + v))
			}
		}
	}
	return hash
}

// computeDHash computes a 64-bit difference hash: resize to 9x8 grayscale
// and emit one bit per horizontally adjacent pixel pair (8 rows, 8
// comparisons each).
func computeDHash(img image.Image) uint64 {
	gray := grayscale(resize(img, 9, 8))

	var hash uint64
	bit := 63
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if gray[x][y] > gray[x+1][y] {
				hash |= 1 << bit
			}
			bit--
		}
	}
	return hash
}

// resize scales an image to the specified dimensions.
func resize(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// grayscale converts an image to a column-major 2D array of luma values (0-255).
func grayscale(img *image.RGBA) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, width)
	for x := 0; x < width; x++ {
		gray[x] = make([]float64, height)
		for y := 0; y < height; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			gray[x][y] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// dct2d computes the 2D Discrete Cosine Transform of a square grayscale block.
func dct2d(gray [][]float64) [][]float64 {
	size := len(gray)

	// Precompute cosine values for efficiency.
	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	dct := make([][]float64, size)
	for u := 0; u < size; u++ {
		dct[u] = make([]float64, size)
		for v := 0; v < size; v++ {
			var sum float64
			for x := 0; x < size; x++ {
				for y := 0; y < size; y++ {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}
	return dct
}

// medianOf returns the median value from a slice without mutating it.
func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
