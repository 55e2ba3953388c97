package config

import (
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the application is running inside a Docker container.
// Detection is based on the presence of /.dockerenv. The result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ListenAddr returns the host:port the server binds to. Inside Docker a
// loopback bind address is unreachable through published ports, so it is
// widened to all interfaces.
func (c *Config) ListenAddr() string {
	return resolveBindAddr(c.BindAddr, IsRunningInDocker()) + ":" + c.Port
}

func resolveBindAddr(addr string, inDocker bool) string {
	if inDocker && (addr == "localhost" || addr == "127.0.0.1") {
		return "0.0.0.0"
	}
	return addr
}
