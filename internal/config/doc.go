// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates the tool configuration. Configuration
// lives in a TOML file at the platform config directory
// (XDG_CONFIG_HOME/modguard, APPDATA, or Library/Application Support) and
// can be overridden with an explicit path. A missing file is not an error:
// defaults apply.
package config
