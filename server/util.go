package server

import (
	"fmt"
	"net"

	"github.com/teranos/tzmeta/errors"
)

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// findAvailablePort returns port if free, otherwise the next free port
// within a small window above it
func findAvailablePort(port int) (int, error) {
	const window = 10
	for p := port; p < port+window; p++ {
		if isPortAvailable(p) {
			return p, nil
		}
	}
	return 0, errors.Newf("no free port in %d..%d", port, port+window-1)
}
