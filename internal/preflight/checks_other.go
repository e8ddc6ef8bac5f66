//go:build !unix

package preflight

import (
	"fmt"
	"os"
)

// CheckDirectoryAccess verifies that the directory exists or can be created.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && nearestExisting(path) != "" {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckFreeSpace is not measured on this platform.
func CheckFreeSpace(name, path string, _ int64) Result {
	return Result{Name: name, Passed: true, Optional: true, Detail: "not measured on this platform"}
}
