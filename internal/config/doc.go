// SPDX-License-Identifier: MPL-2.0

// Package config loads crmngr preferences and profiles.
//
// Both live in ~/.crmngr (or $CRMNGR_CONFIG_DIR) as INI files:
//
//	# prefs
//	[crmngr]
//	cache_ttl = 86400
//	version_check = yes
//	wrap = yes
//
//	# profiles
//	[default]
//	repository = git@git.example.com:puppet/control.git
//
// Files are parsed with ini.v1, validated against the embedded CUE schema
// (config_schema.cue) and, for preferences, layered in Viper under defaults and
// CRMNGR_* environment variables. The version cache lives in the cache
// subdirectory.
package config
