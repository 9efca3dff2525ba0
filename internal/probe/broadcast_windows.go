//go:build windows

package probe

// setBroadcastOption is a no-op on Windows; the broadcast send is
// attempted regardless and simply fails silently if disallowed.
func setBroadcastOption(fd uintptr) bool {
	return false
}
