// Package source discovers and parses Codex JSONL session logs.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/theirongolddev/cxburn/internal/model"
)

// Scan walks the sessions directory under a usage home and returns every log
// file worth ingesting, sorted by path. Files with a .jsonl or .ndjson
// extension are always included; .log files are included only when their
// first line looks like a JSON object. Entries that cannot be read or
// stat'ed are reported as issues and skipped rather than aborting the walk.
func Scan(homePath string) ([]DiscoveredFile, []model.IngestIssue, error) {
	sessionsDir := filepath.Join(homePath, "sessions")

	info, err := os.Stat(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, nil
	}

	var files []DiscoveredFile
	var issues []model.IngestIssue

	err = filepath.WalkDir(sessionsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			issues = append(issues, model.IngestIssue{FilePath: path, Message: err.Error()})
			return nil //nolint:nilerr // recorded above, keep walking
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".jsonl", ".ndjson":
		case ".log":
			if !sniffJSONL(path) {
				return nil
			}
		default:
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			issues = append(issues, model.IngestIssue{FilePath: path, Message: err.Error()})
			return nil //nolint:nilerr
		}
		df := DiscoveredFile{
			Path:  path,
			Size:  uint64(fi.Size()),
			Mtime: model.FormatTS(fi.ModTime()),
			Inode: fileInode(fi),
		}
		files = append(files, df)
		return nil
	})
	if err != nil {
		return nil, issues, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, issues, nil
}

// sniffJSONL reports whether the file's first non-empty line parses as a
// JSON object.
func sniffJSONL(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' {
			return false
		}
		var obj map[string]any
		return json.Unmarshal(line, &obj) == nil
	}
	return false
}

// StatFile refreshes size, mtime and inode for a known path.
func StatFile(path string) (DiscoveredFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return DiscoveredFile{}, err
	}
	return DiscoveredFile{
		Path:  path,
		Size:  uint64(fi.Size()),
		Mtime: model.FormatTS(fi.ModTime()),
		Inode: fileInode(fi),
	}, nil
}
