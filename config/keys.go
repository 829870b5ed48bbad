// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	QuietKey           = "quiet"
	HiddenDirectionKey = "hidden-direction"
	ChainIDKey         = "chain-id"
	GasLimitKey        = "gas-limit"
	AccountsKey        = "accounts"
	StepsKey           = "steps"
)
