// Package schemas embeds the CUE schemas shipped with the simulator.
package schemas

import _ "embed"

// RelaySim validates config/relaysim.yaml style files.
//
//go:embed relaysim.cue
var RelaySim []byte
