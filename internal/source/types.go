package source

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/cxburn/internal/model"
)

// DiscoveredFile is one session log found under a usage home.
type DiscoveredFile struct {
	Path  string
	Size  uint64
	Mtime string
	Inode *uint64
}

// ParsedLine is what a single JSON line yields. At most one of Usage and
// Message is set; Limits may accompany either. Usage carries the CUMULATIVE
// session totals as written in the log, not a per-event delta. Err is set for
// lines that do not parse as a JSON object; such lines yield nothing else.
type ParsedLine struct {
	Usage   *model.UsageEvent
	Message *model.MessageEvent
	Limits  []model.LimitSnapshot
	Err     error
}

// LineID derives the stable event id for a line: hex sha256 of the source
// path and the raw line joined by ':'. Re-ingesting the same line from the
// same file always produces the same id.
func LineID(source string, line []byte) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{':'})
	h.Write(line)
	return hex.EncodeToString(h.Sum(nil))
}

// SessionIDFromSource extracts the session id from a rollout file name
// ("rollout-<timestamp>-<id>.jsonl" yields "<id>"). Files that do not follow
// the rollout naming use the full source path as their session id.
func SessionIDFromSource(source string) string {
	name := filepath.Base(source)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if rest, ok := strings.CutPrefix(stem, "rollout-"); ok {
		if idx := strings.LastIndexByte(rest, '-'); idx >= 0 && idx+1 < len(rest) {
			return rest[idx+1:]
		}
	}
	return source
}
