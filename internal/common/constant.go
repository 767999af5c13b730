// Package common contains shared constants and sentinel errors used across
// vanish components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ErrorDomain tags the errdetails.ErrorInfo attached to gRPC statuses.
const ErrorDomain = "vanish"
