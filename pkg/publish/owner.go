package publish

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// owner is the UID/GID published files are handed to.
type owner struct {
	uid int
	gid int
}

// parseOwner parses "UID:GID". An empty string means no ownership change.
func parseOwner(s string) (*owner, error) {
	if s == "" {
		return nil, nil
	}

	uidStr, gidStr, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid owner %q, expected UID:GID", s)
	}

	uid, err := strconv.Atoi(uidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UID %q: %w", uidStr, err)
	}

	gid, err := strconv.Atoi(gidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid GID %q: %w", gidStr, err)
	}

	return &owner{uid: uid, gid: gid}, nil
}

// chown hands path to o. It is best effort: a digest readable by its
// writer is still published.
func (o *owner) chown(path string) error {
	if o == nil {
		return nil
	}

	return os.Chown(path, o.uid, o.gid)
}
