//go:build linux

// Package sysinfo provides the OS-name/machine/cwd environment block
// Initialize reports, using golang.org/x/sys/unix for the uname(2) call.
package sysinfo

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// Environment is the OS name, machine architecture, and current working
// directory block appended to Initialize's output.
type Environment struct {
	OS      string
	Machine string
	Cwd     string
}

// Describe fills an Environment for cwd via uname(2).
func Describe(cwd string) Environment {
	env := Environment{Cwd: cwd}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err == nil {
		env.OS = cstr(uts.Sysname[:])
		env.Machine = cstr(uts.Machine[:])
	}
	return env
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// String renders the environment block the way Initialize appends it.
func (e Environment) String() string {
	return "System: " + e.OS + "\nMachine: " + e.Machine + "\nCurrent working directory: " + e.Cwd
}
