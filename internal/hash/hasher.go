package hash

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"imagededup/internal/models"
)

// Method selects the perceptual hashing algorithm.
type Method string

const (
	MethodPHash Method = "phash"
	MethodDHash Method = "dhash"
	MethodAHash Method = "ahash"
)

// FingerprintBits is the width of the fingerprints all methods produce.
const FingerprintBits = 64

// ParseMethod validates a method name from user input.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodPHash:
		return MethodPHash, nil
	case MethodDHash:
		return MethodDHash, nil
	case MethodAHash:
		return MethodAHash, nil
	default:
		return "", &models.UnsupportedMethodError{Method: s, Reason: "unknown hashing method"}
	}
}

// Hasher computes perceptual hashes and quality metadata for images.
type Hasher struct {
	method Method
}

// NewHasher creates a Hasher for the given method.
func NewHasher(method Method) *Hasher {
	return &Hasher{method: method}
}

// HashImage computes the fingerprint and extracts metadata for one image.
func (h *Hasher) HashImage(path string) (*models.ImageRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	// Check for EXIF data (before reading image, as Decode consumes the reader)
	hasExif := checkExif(path)

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var ih *goimagehash.ImageHash
	switch h.method {
	case MethodPHash:
		ih, err = goimagehash.PerceptionHash(img)
	case MethodDHash:
		ih, err = goimagehash.DifferenceHash(img)
	case MethodAHash:
		ih, err = goimagehash.AverageHash(img)
	default:
		return nil, &models.UnsupportedMethodError{Method: string(h.method), Reason: "unknown hashing method"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}

	bounds := img.Bounds()
	rec := &models.ImageRecord{
		ID:          path,
		Fingerprint: ih.GetHash(),
		Method:      string(h.method),
		Bits:        FingerprintBits,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		Format:      strings.ToLower(format),
		FileSize:    stat.Size(),
		ModTime:     stat.ModTime(),
		HasExif:     hasExif,
	}
	rec.Quality = Score(rec)

	return rec, nil
}

// HashImageWithTimeout hashes an image, giving up after the timeout. Some
// malformed files make decoders spin; a stuck worker must not stall the scan.
func (h *Hasher) HashImageWithTimeout(path string, timeout time.Duration) (*models.ImageRecord, error) {
	done := make(chan struct{})
	var rec *models.ImageRecord
	var err error

	go func() {
		rec, err = h.HashImage(path)
		close(done)
	}()

	select {
	case <-done:
		return rec, err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout hashing image: %s", path)
	}
}

// Score computes the quality score for an image: resolution weighted by
// format and metadata presence.
func Score(rec *models.ImageRecord) float64 {
	resolution := float64(rec.Width * rec.Height)
	return resolution *
		models.FormatQualityMultiplier(rec.Format) *
		models.MetadataMultiplier(rec.HasExif)
}

// checkExif checks if an image file contains EXIF data.
func checkExif(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	_, err = exif.Decode(file)
	return err == nil
}

// IsSupportedImage checks if a file is a supported image format.
func IsSupportedImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		return true
	default:
		return false
	}
}

// HammingDistance calculates the Hamming distance between two fingerprints.
func HammingDistance(a, b uint64) int {
	xor := a ^ b
	count := 0
	for xor != 0 {
		count++
		xor &= xor - 1
	}
	return count
}
