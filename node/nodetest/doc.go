// Package nodetest provides stub nodes and a fluent graph builder for
// testing code that runs pipelines.
package nodetest
