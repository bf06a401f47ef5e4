package espalier

import _ "embed"

// Version is the espalier release, read from the VERSION file.
//
//go:embed VERSION
var Version string
