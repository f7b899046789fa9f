package api

import (
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies. A performance of a few thousand events
// fits well below it.
const maxBodyBytes = 8 << 20

// readBody reads the whole request body up to maxBodyBytes.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", maxBodyBytes)
	}
	return data, nil
}
