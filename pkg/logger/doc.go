// Package logger provides structured logging for kvault built on zerolog.
//
// The Logger interface decouples the rest of the codebase from zerolog so
// tests can substitute a capturing implementation (TestLogger). A global
// logger is available through GetLogger; Initialize configures it from the
// logging section of the client configuration.
//
// Usage:
//
//	log := logger.GetLogger()
//	log.InfoWithFields("request completed", map[string]interface{}{
//		"method": "GET",
//		"status": 200,
//	})
package logger
