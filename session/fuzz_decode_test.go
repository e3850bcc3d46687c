package session

import (
	"testing"
)

// FuzzDecodeFields exercises the stored-hash decoder with arbitrary
// field values. Goal: no panics; corrupt records fail with an error,
// and anything that decodes re-encodes losslessly.
func FuzzDecodeFields(f *testing.F) {
	valid := stringFields(encodeFields(sampleSession()))
	f.Add(
		valid[fieldUserID], valid[fieldRole],
		valid[fieldRefreshHash], valid[fieldPrevRefreshHash],
		valid[fieldRequestCount], valid[fieldExpiresAt],
	)
	f.Add("u-1", "Doctor", "", "", "0", "0")
	f.Add("", "", "zz", "not-hex", "-1", "soon")
	f.Add("u-1", "Doctor", "abcd", "ff", "18446744073709551616", "9223372036854775808")

	f.Fuzz(func(t *testing.T, userID, role, hash, prevHash, requestCount, expiresAt string) {
		fields := stringFields(encodeFields(sampleSession()))
		fields[fieldUserID] = userID
		fields[fieldRole] = role
		fields[fieldRefreshHash] = hash
		fields[fieldPrevRefreshHash] = prevHash
		fields[fieldRequestCount] = requestCount
		fields[fieldExpiresAt] = expiresAt

		sess, err := decodeFields("sid-fuzz", fields)
		if err != nil {
			return
		}

		if sess.UserID != userID {
			t.Fatalf("decoded user id %q, want %q", sess.UserID, userID)
		}

		// Decoded records must survive a re-encode round trip.
		again, err := decodeFields(sess.ID, stringFields(encodeFields(sess)))
		if err != nil {
			t.Fatalf("re-decode of encoded session failed: %v", err)
		}
		if *again != *sess {
			t.Fatalf("roundtrip mismatch:\n got %+v\nwant %+v", again, sess)
		}
	})
}
