package midi

import (
	"github.com/octetta/gomidio/internal/logger"
	"github.com/octetta/gomidio/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger() // Default to the zap-backed logger
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel // Default log level to InfoLevel
	}
	if options.ClientName == "" {
		options.ClientName = contracts.DefaultClientName
	}
	if options.MaxPorts == 0 {
		options.MaxPorts = contracts.DefaultMaxPorts
	}
	if options.SysExBufferSize == 0 {
		options.SysExBufferSize = contracts.DefaultSysExBufferSize
	}

	options.Logger.SetLevel(options.LogLevel) // Set the logger to the specified log level
	return *options, nil
}
