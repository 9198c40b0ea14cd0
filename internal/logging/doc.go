// Package logging provides a simple leveled logging interface for texdb.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions, such as a texture group lookup miss
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the process
//
// The log level is read from the DEBUG and LOG_LEVEL environment variables
// and can be overridden at runtime with SetLevel (the CLI does this for
// --verbose).
package logging
