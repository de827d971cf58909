package dicom

import (
	"fmt"

	pacserrors "github.com/caio-sobreiro/pacs/errors"
)

func newUnknownVRError(vr string) error {
	return pacserrors.NewCodecError("unknown_vr", fmt.Sprintf("VR %q is not recognized", vr))
}

func newInvalidLengthError(vr string, got, want int) error {
	return pacserrors.NewCodecError("invalid_length",
		fmt.Sprintf("VR %s value length %d is not a multiple of %d", vr, got, want))
}

func newCharsetViolationError(vr string, value []byte) error {
	return pacserrors.NewCodecError("charset_violation",
		fmt.Sprintf("VR %s value %q violates its character set", vr, string(value)))
}

func newTruncatedError(where string) error {
	return pacserrors.NewCodecError("truncated", where)
}

func newMalformedError(msg string) error {
	return pacserrors.NewCodecError("malformed", msg)
}
