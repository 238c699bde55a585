package store

import "github.com/minio/highwayhash"

// dedupKey is a fixed key for the issue de-duplication hash. It does not
// need to be secret, only stable across a process lifetime, so a
// hard-coded key is adequate here.
var dedupKey = []byte("smaliscan-issue-dedup-key-v1!!!!")

// issueHash folds an issue's identity fields into a single dedup key.
// Two issues that hash equal are considered the same finding even if
// raised by different detector invocations.
func issueHash(detectorID, summary, source, info1, info2 string) (uint64, error) {
	h, err := highwayhash.New64(dedupKey)
	if err != nil {
		return 0, err
	}
	for _, part := range []string{detectorID, summary, source, info1, info2} {
		if _, err := h.Write([]byte(part)); err != nil {
			return 0, err
		}
		// a zero byte separator prevents "ab"+"c" colliding with "a"+"bc"
		if _, err := h.Write([]byte{0}); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}
