//go:build unix

package source

import (
	"io/fs"
	"syscall"
)

// fileInode returns the inode number when the platform exposes one.
func fileInode(fi fs.FileInfo) *uint64 {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		ino := uint64(st.Ino)
		return &ino
	}
	return nil
}
