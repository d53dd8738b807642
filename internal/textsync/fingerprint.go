package textsync

import "github.com/zeebo/xxh3"

// Fingerprint is a content hash used to recognize echoed buffers.
type Fingerprint uint64

// FingerprintOf hashes text.
func FingerprintOf(text string) Fingerprint {
	return Fingerprint(xxh3.HashString(text))
}
