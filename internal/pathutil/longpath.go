package pathutil

import "strings"

// Windows extended-length prefixes. Local absolute paths take \\?\ while UNC
// paths swap their leading \\ for \\?\UNC\. Paths already carrying a prefix
// are returned unchanged. Pure string manipulation so it stays testable on
// every platform; Resolve only applies it on Windows.
const (
	extendedPrefix = `\\?\`
	uncPrefix      = `\\?\UNC\`
)

// longPath returns abs with the extended-length prefix applied. The input is
// expected to be an absolute Windows path with backslash separators.
func longPath(abs string) string {
	if strings.HasPrefix(abs, extendedPrefix) {
		return abs
	}
	if strings.HasPrefix(abs, `\\`) {
		// \\server\share\... -> \\?\UNC\server\share\...
		return uncPrefix + abs[2:]
	}
	return extendedPrefix + abs
}
