package utils

import "net"

func GetFreePort() (int, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// HasNetwork reports whether the host has a usable non-loopback address.
// It inspects local interfaces only and performs no network I/O.
func HasNetwork() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ipNet.IP.To4() != nil || ipNet.IP.To16() != nil {
			return true
		}
	}
	return false
}
