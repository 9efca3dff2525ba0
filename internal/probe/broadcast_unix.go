//go:build !windows

package probe

import "golang.org/x/sys/unix"

// setBroadcastOption sets SO_BROADCAST on the given file descriptor.
func setBroadcastOption(fd uintptr) bool {
	err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	return err == nil
}
