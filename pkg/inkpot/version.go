// Package inkpot holds build information for the inkpot binary.
package inkpot

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/mesh-intelligence/inkpot/pkg/inkpot.Version=...".
var Version = "0.1.0"

// ModulePath is the Go module path of this repository.
const ModulePath = "github.com/mesh-intelligence/inkpot"
