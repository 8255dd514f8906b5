// Package node defines the node contracts of a FlowForge pipeline and the
// registry that turns graph.NodeDefinition values into configured instances.
//
// A Node is a closed tagged variant: exactly one of Source, Transform
// (optionally Buffered) or Output. The category of a type key is static
// registration data, so the engine never probes an instance to learn it.
//
// Every registration declares a Schema. Instantiate binds the raw
// definition config against it once, so nodes receive typed Values and
// every violated key is reported together.
package node
