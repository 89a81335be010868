package artifact

import "errors"

// Load-time sentinels. Both are fatal: the service must not reach a ready
// state with a missing or unreadable model.
var (
	ErrArtifactMissing = errors.New("artifact file missing")
	ErrArtifactCorrupt = errors.New("artifact file corrupt")
)

// ErrDimensionMismatch is returned when a feature vector does not match the
// classifier's expected input size.
var ErrDimensionMismatch = errors.New("feature vector dimension mismatch")
