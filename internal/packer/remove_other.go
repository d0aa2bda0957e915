//go:build !unix

package packer

import "os"

func unlink(path string) error {
	return os.Remove(path)
}
