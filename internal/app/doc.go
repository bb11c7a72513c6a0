// Package app assembles the server: configuration, logging, the node
// registry, the execution engine and the HTTP/websocket surface.
package app
