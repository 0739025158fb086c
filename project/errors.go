package project

import (
	"fmt"

	"github.com/ohyeah2389/Pointgram/geometry"
)

// Invariant names used in ValidationError. Handlers and tests match on these
// rather than on message text.
const (
	InvariantReferentialIntegrity = "referential_integrity"
	InvariantDuplicateObservation = "duplicate_observation"
	InvariantDuplicateImagePath   = "duplicate_image_path"
	InvariantImageDimensions      = "image_dimensions"
	InvariantTrackIdentity        = "track_identity"
)

// ValidationError reports a rejected graph mutation. The operation had no
// effect; Invariant names the rule that would have been violated.
type ValidationError struct {
	Invariant string
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Invariant, e.Detail)
}

func validationf(invariant, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
}

// ConflictError reports a track merge where both tracks observe the same
// image at coordinates further apart than the merge tolerance. The caller
// must retry with an explicit winner.
type ConflictError struct {
	DstTrackID string
	SrcTrackID string
	ImageID    string
	DstPixel   geometry.Pixel
	SrcPixel   geometry.Pixel
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict: tracks %s and %s both observe image %s at (%.2f, %.2f) vs (%.2f, %.2f)",
		e.DstTrackID, e.SrcTrackID, e.ImageID, e.DstPixel.X, e.DstPixel.Y, e.SrcPixel.X, e.SrcPixel.Y)
}
