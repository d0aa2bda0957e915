//go:build unix

package packer

import "syscall"

func unlink(path string) error {
	return syscall.Unlink(path)
}
