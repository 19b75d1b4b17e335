// Package apicommon provides common types, constants, and helper functions for the API.
package apicommon

const (
	// EnvironmentTest is the widget environment used with test credentials.
	EnvironmentTest = "test"
	// EnvironmentLive is the widget environment used with live credentials.
	EnvironmentLive = "live"
)
