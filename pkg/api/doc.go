// Package api defines the request and response messages of the groupledger
// RPC services. Messages travel as JSON; field names follow the lowerCamelCase
// convention used by Connect JSON clients.
package api
