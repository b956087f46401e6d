package download

// Phase represents a stage in the ISO download lifecycle.
type Phase int

const (
	PhaseStart      Phase = iota // HTTP response received.
	PhaseProgress                // Periodic byte count update.
	PhaseDecompress              // Payload is compressed and decoded on the fly.
	PhaseDone                    // File committed to its final path.
)

// Event describes a single download progress update.
type Event struct {
	Phase      Phase
	BytesTotal int64 // Content-Length; -1 if unknown.
	BytesDone  int64 // Compressed bytes received so far.
	Path       string
}
