// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// AppName is the binary name shown in version output
const AppName = "hilal"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH
