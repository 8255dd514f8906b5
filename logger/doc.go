// Package logger provides structured logging for FlowForge using zerolog.
//
// The CLI writes results to stdout, so loggers default to stderr. Runs,
// nodes and jobs are tagged through the Field* keys so a JSON log stream
// can be filtered per node or per file.
//
// # Configuration
//
//	log:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.NewDefault("flowforge").WithComponent("engine")
//	log.Info("run finished", logger.Fields("succeeded", 3))
package logger
