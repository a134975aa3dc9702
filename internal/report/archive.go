package report

import (
	"fmt"

	"github.com/golang/snappy"
)

// Pack compresses a rendered report for storage.
func Pack(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Unpack restores a report compressed with Pack.
func Unpack(packed []byte) ([]byte, error) {
	data, err := snappy.Decode(nil, packed)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return data, nil
}
