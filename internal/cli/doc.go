// Package cli implements the command-line interface for vlr-matches.
//
// The cli package provides the Cobra-based CLI for listing VCT matches:
// region selection via event discovery, view filtering (all/upcoming/results),
// cache management, favorites, and JSON/CSV export. It coordinates the
// discovery, client, format, and export packages.
package cli
