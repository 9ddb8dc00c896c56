// Package utils provides shared utility functions and constants
package utils

// ContextKeyProfile is the key used to store the resolved profile in the echo context
const ContextKeyProfile = "profile"

// CookieName is the name of the access token cookie
const CookieName = "ExplorerToken"

// AccessTokenHeader carries the access token for API clients
const AccessTokenHeader = "X-Explorer-Token"
