//go:build windows

package open

import (
	winacl "github.com/hectane/go-acl"
)

// WINDOWS: file mode given at creation is not applied as ACL.
func restrict(path string) error {
	return winacl.Chmod(path, FileMode)
}
