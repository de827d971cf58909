package signature

import (
	"crypto/rand"
	"fmt"
	"time"
)

// defaultRoot is an implementation-assigned prefix under the DICOM org
// tree (1.2.840.10008 is reserved for the standard itself; this module
// is not registered, so it mints signature UIDs under its own branch).
const defaultRoot = "1.2.840.114001.99"

// newSignatureUID mints a DICOM-compatible UID of the form
// <root>.<epoch-ms>.<4-random-bytes-as-decimal>.
func newSignatureUID(root string) string {
	if root == "" {
		root = defaultRoot
	}
	var r [4]byte
	if _, err := rand.Read(r[:]); err != nil {
		// crypto/rand.Read on a supported platform does not fail; if it
		// somehow did, a zero suffix still yields a well-formed (if
		// non-unique) UID rather than a panic.
	}
	suffix := uint32(r[0])<<24 | uint32(r[1])<<16 | uint32(r[2])<<8 | uint32(r[3])
	return fmt.Sprintf("%s.%d.%d", root, time.Now().UnixMilli(), suffix)
}
