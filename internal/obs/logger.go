// Package obs wires up structured logging for the service.
package obs

import "go.uber.org/zap"

// NewLogger builds the process-wide zap logger. Production environments get
// JSON output; everything else gets the human-readable development encoder.
func NewLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
