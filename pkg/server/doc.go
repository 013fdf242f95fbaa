// Package server provides the HTTP server and routing.
package server
