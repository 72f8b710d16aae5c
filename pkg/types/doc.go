// Package types defines the Post entity, the PostStore and ViewCounter
// interfaces, configuration, and the standard errors shared by the inkpot
// site, its storage backends, and its CLI.
package types
