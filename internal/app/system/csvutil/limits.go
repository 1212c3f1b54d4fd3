// internal/app/system/csvutil/limits.go
package csvutil

// Upload size and row limits for tabular uploads and CSV feeds.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000

	// MaxFeedSize bounds a published CSV export read by the feeds.
	MaxFeedSize = 4 * MaxUploadSize
)
