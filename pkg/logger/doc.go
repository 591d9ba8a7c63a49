// Package logger provides structured logging for vscodl on top of zerolog.
//
// Components accept a Logger and fall back to the global one when given
// nil. Tests use NewTestLogger to capture and inspect messages, or
// NewNopLogger to silence output.
//
//	log := logger.GetLogger().WithField("username", "someone")
//	log.InfoWithFields("profile loaded", map[string]interface{}{
//	    "images": 42,
//	})
package logger
