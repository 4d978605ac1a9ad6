package logging

import (
	"fmt"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFWriter dials a Graylog GELF UDP input, e.g. "graylog:12201".
func NewGELFWriter(addr string) (*gelf.Writer, error) {
	if addr == "" {
		return nil, fmt.Errorf("graylog address is empty")
	}
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graylog at %s: %w", addr, err)
	}
	w.Facility = serviceName
	return w, nil
}
