package client

import "net"

// DaemonRunning reports whether a daemon is already listening on sock.
func DaemonRunning(sock string) bool {
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
