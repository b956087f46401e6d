//go:build !linux

package partition

import "errors"

func rereadPartitions(string) error {
	return errors.New("re-reading partition tables is only supported on linux")
}
