//go:build !windows

package open

import "os"

func restrict(path string) error {
	return os.Chmod(path, FileMode)
}
