//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Serve builds the binary and starts the HTTP API.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV("bin/shipcheck", "serve")
}

// Rules parses the configured rules table and lists skipped rows.
func Rules() error {
	mg.Deps(Build)
	return sh.RunV("bin/shipcheck", "rules", "check")
}
