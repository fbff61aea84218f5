package metrics

// Wrapper helpers so core packages never touch prometheus types directly.

// FrameScanned records one MPEG frame appended to the catalog.
func FrameScanned(readerID string) {
	framesScannedTotal.WithLabelValues(readerID).Inc()
}

// ResyncBytes records bytes skipped during per-byte resync.
func ResyncBytes(readerID string, n int64) {
	resyncBytesTotal.WithLabelValues(readerID).Add(float64(n))
}

// TagSkipped records one recognized container tag.
func TagSkipped(readerID, kind string) {
	tagsSkippedTotal.WithLabelValues(readerID, kind).Inc()
}

// FreeFormatResolved records one recovered free-format frame length.
func FreeFormatResolved(readerID string) {
	freeFormatResolvedTotal.WithLabelValues(readerID).Inc()
}

// WindowCapacity records the current window buffer capacity.
func WindowCapacity(n int) {
	windowCapacityBytes.Set(float64(n))
}

// WindowGrow records one capacity doubling.
func WindowGrow() {
	windowGrowsTotal.Inc()
}

// WindowTruncate records one truncate-and-refill relocation.
func WindowTruncate() {
	windowTruncatesTotal.Inc()
}

// SavedBufferBytes records the bytes retained across per-frame save buffers.
func SavedBufferBytes(readerID string, n int64) {
	savedBufferBytes.WithLabelValues(readerID).Set(float64(n))
}
