//go:build !linux

package sysinfo

import "runtime"

// Environment is the OS name, machine architecture, and current working
// directory block appended to Initialize's output.
type Environment struct {
	OS      string
	Machine string
	Cwd     string
}

// Describe falls back to Go's runtime constants on platforms without
// uname(2) (or where x/sys/unix doesn't expose it uniformly).
func Describe(cwd string) Environment {
	return Environment{OS: runtime.GOOS, Machine: runtime.GOARCH, Cwd: cwd}
}

// String renders the environment block the way Initialize appends it.
func (e Environment) String() string {
	return "System: " + e.OS + "\nMachine: " + e.Machine + "\nCurrent working directory: " + e.Cwd
}
