// Package config loads and merges coreview configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (COREVIEW_PROVIDER, COREVIEW_MODEL, COREVIEW_ADDR,
//     COREVIEW_SERVER_URL, COREVIEW_LOG_LEVEL, COREVIEW_LOG_FORMAT,
//     COREVIEW_CACHE_TTL)
//  3. Config file ($XDG_CONFIG_HOME/coreview/config.json, or the JSON or YAML
//     file named by COREVIEW_CONFIG)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged, validated [Config], [Save] to write one back,
// and [SetField] to update a single dotted key.
package config
