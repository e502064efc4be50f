package server

import (
	"net"
	"os"
	"path/filepath"
	"runtime"

	"nudeploy/internal/logger"
)

type ListenAddr struct {
	Network string
	Address string
}

/**
 * Test if the system supports Unix socket network type
 * @returns {bool} Returns true if Unix socket is supported, false otherwise
 * @description
 * - Always true outside windows
 * - On windows creates and removes a temporary socket to probe support
 */
func IsUnixSocketSupported() bool {
	if runtime.GOOS != "windows" {
		return true
	}
	testSocketPath := filepath.Join(os.TempDir(), "nudeploy_probe.sock")
	os.Remove(testSocketPath)

	listener, err := net.Listen("unix", testSocketPath)
	if err != nil {
		return false
	}
	listener.Close()
	os.Remove(testSocketPath)
	return true
}

/**
 * Build the listen addresses of the API server
 * @param {string} address - TCP address, empty to disable
 * @param {string} socket - Unix socket path, empty to disable
 * @returns {[]ListenAddr} Addresses in listen order
 */
func ListenAddrs(address, socket string) []ListenAddr {
	var addrs []ListenAddr
	if address != "" {
		addrs = append(addrs, ListenAddr{Network: "tcp", Address: address})
	}
	if socket != "" {
		if IsUnixSocketSupported() {
			addrs = append(addrs, ListenAddr{Network: "unix", Address: socket})
		} else {
			logger.Warnf("Unix socket is not supported, '%s' ignored", socket)
		}
	}
	return addrs
}

/**
 * Create TCP and Unix socket listeners
 * @param {[]ListenAddr} addrs - Listener addresses
 * @returns {[]net.Listener} Listeners that could be created
 * @returns {error} Last creation error, nil if all succeeded
 * @description
 * - Removes a stale socket file before listening on it
 * - Creates the socket directory when missing
 */
func CreateListeners(addrs []ListenAddr) ([]net.Listener, error) {
	var listeners []net.Listener

	var lastErr error
	for _, addr := range addrs {
		if addr.Network == "unix" {
			if err := os.MkdirAll(filepath.Dir(addr.Address), 0o755); err != nil {
				logger.Errorf("Failed to create socket directory: %v", err)
				lastErr = err
				continue
			}
			if err := os.Remove(addr.Address); err != nil && !os.IsNotExist(err) {
				logger.Errorf("Failed to remove existing socket file: %v", err)
				lastErr = err
				continue
			}
		}
		l, err := net.Listen(addr.Network, addr.Address)
		if err != nil {
			logger.Errorf("Failed to create listener on %s://%s: %v", addr.Network, addr.Address, err)
			lastErr = err
			continue
		}
		listeners = append(listeners, l)
	}
	return listeners, lastErr
}
