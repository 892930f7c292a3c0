// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the modguard command-line interface: scanning for
// namespace collisions, applying fixes, and the supporting integration
// commands.
package cmd
