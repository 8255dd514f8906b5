// Package graph models a FlowForge pipeline as a directed acyclic graph of
// node definitions and connections.
//
// It validates graphs against a registry of known node types, orders them
// with Kahn's algorithm, reads and writes pipeline files (.ffpipe JSON or
// YAML), and ships a small library of starter templates.
//
// # Pipeline file
//
//	name: Batch Sequential Rename
//	nodes:
//	  - id: in
//	    typeKey: FolderInput
//	    config: {path: ./photos, filter: "*.jpg"}
//	  - id: out
//	    typeKey: FolderOutput
//	    config: {path: ./out}
//	connections:
//	  - {fromNode: in, toNode: out}
package graph
