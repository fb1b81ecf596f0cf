package models

import "time"

// ImageRecord holds the fingerprint and metadata for one discovered image.
// Records are created once by the hashing stage and never mutated afterwards.
type ImageRecord struct {
	ID          string    `json:"id"` // absolute file path
	Fingerprint uint64    `json:"fingerprint"`
	Method      string    `json:"method"`
	Bits        int       `json:"bits"` // fingerprint width in bits
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Format      string    `json:"format"`
	FileSize    int64     `json:"file_size"`
	ModTime     time.Time `json:"mod_time"`
	HasExif     bool      `json:"has_exif"`
	Quality     float64   `json:"quality"`
}

// CandidatePair is an unordered pair of images whose fingerprint distance
// is within the configured threshold. A is always the lexically smaller id.
type CandidatePair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Distance int    `json:"distance"`
}

// DuplicateGroup is one connected component of the candidate-pair graph.
// Members are transitively linked: two members may exceed the threshold
// directly as long as a path of within-threshold pairs connects them.
type DuplicateGroup struct {
	ID             int      `json:"group_id"`
	Members        []string `json:"members"` // sorted, len >= 2
	Representative string   `json:"representative"`
}

// Duplicates returns the member ids that are not the representative.
func (g *DuplicateGroup) Duplicates() []string {
	dups := make([]string, 0, len(g.Members)-1)
	for _, id := range g.Members {
		if id != g.Representative {
			dups = append(dups, id)
		}
	}
	return dups
}

// RemovalPlan is the derived, recomputable output of a run: which files can
// be removed and how much space that reclaims. It is never mutated after
// compilation; execution and reporting only read it.
type RemovalPlan struct {
	Method          string            `json:"method"`
	Threshold       int               `json:"threshold"`
	SourceDir       string            `json:"source_directory,omitempty"`
	Groups          []*DuplicateGroup `json:"groups"`
	ToRemove        []string          `json:"to_remove"` // sorted
	BytesReclaimed  int64             `json:"bytes_reclaimed"`
	TotalImages     int               `json:"total_images"`
	TotalGroups     int               `json:"total_groups"`
	TotalDuplicates int               `json:"total_duplicates"`
	TotalKept       int               `json:"total_kept"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// FormatQualityMultiplier returns the quality multiplier for an image format.
func FormatQualityMultiplier(format string) float64 {
	switch format {
	case "png", "tiff", "bmp":
		return 1.2 // Lossless formats
	case "webp":
		return 1.1 // Often lossless or high quality
	case "jpeg", "jpg":
		return 1.0 // Lossy
	case "gif":
		return 0.9 // Limited colors
	default:
		return 1.0
	}
}

// MetadataMultiplier returns the quality multiplier based on metadata presence.
func MetadataMultiplier(hasExif bool) float64 {
	if hasExif {
		return 1.1 // Prefer images with metadata
	}
	return 1.0
}
