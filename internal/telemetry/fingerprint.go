package telemetry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Saugat913/femite-sub000/internal/domain"
)

// Fingerprint identifies the requester for the query log. Preference order:
// authenticated user id, session id, a hash of ip and user agent, and
// finally a timestamp-based synthetic id.
func Fingerprint(r domain.Requester, now time.Time) string {
	switch {
	case r.UserID != "":
		return "user-" + r.UserID
	case r.SessionID != "":
		return r.SessionID
	case r.IPAddress != "" || r.UserAgent != "":
		sum := sha256.Sum256([]byte(r.IPAddress + "|" + r.UserAgent))
		return "anon-" + hex.EncodeToString(sum[:8])
	}
	return fmt.Sprintf("anon-%d", now.UnixNano())
}
