// Package conf contains the constants that are used across packages for configuring
// versions and the packed file format, as well as the loader for the cli config file.
package conf

import (
	"fmt"
	"time"
)

const (
	// SIGNATURE is put at the beginning of a packed buffer so that we can detect packed data.
	SIGNATURE = "\x1bTurf"
	// VERSION is the version of the turf application.
	VERSION = "Turf 0.1.0"
	// FORMAT pack/unpack format incase it ever changes.
	FORMAT = 1
	// HEADERSIZE is the size of the header that precedes the float section.
	HEADERSIZE = len(SIGNATURE) + 2 + 4 + 4
	// MAXFLOATS max amount of floats a single buffer can address.
	MAXFLOATS = 1<<32 - 1
	// BUFFERMODULE is the name of the module the loader must resolve during init.
	BUFFERMODULE = "buffer"
)

// FullVersion returns the version and copyright.
func FullVersion() string {
	return fmt.Sprintf("%v %v", VERSION, Copyright())
}

// Copyright is the copyright to be written out in the CLI.
func Copyright() string {
	return fmt.Sprintf("Copyright (C) %v", time.Now().Year())
}
