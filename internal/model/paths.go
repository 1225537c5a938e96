package model

import (
	"fmt"
	"io/fs"
	"os"
)

// FindModel returns the first candidate that is an existing regular file.
func FindModel(candidates ...string) (string, error) {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, nil
		}
	}
	return "", fmt.Errorf("no ONNX model found in %v: %w", candidates, fs.ErrNotExist)
}
