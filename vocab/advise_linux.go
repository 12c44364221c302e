//go:build linux

package vocab

import "golang.org/x/sys/unix"

// adviseSequential hints to the kernel that the mapping will be read front
// to back, so readahead can stay ahead of the parser.
// Best-effort: errors are silently ignored.
func adviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
