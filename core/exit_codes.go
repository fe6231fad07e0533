package core

import "errors"

// Process exit codes.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	ExitCodeConfig  = 2 // the process cannot start because of configuration
)

// ExitCodeFor maps an error returned by a command to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfig
	}
	return ExitCodeError
}
