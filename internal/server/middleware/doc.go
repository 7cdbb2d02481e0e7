// Package middleware holds the HTTP middleware wrapped around the SSE and
// streamable HTTP transports: request metrics labelled by route, security
// headers, CORS and the request body limit.
package middleware
