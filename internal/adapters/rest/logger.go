package rest

import (
	"errors"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
)

var _ retryablehttp.LeveledLogger = leveledLogger{}

// leveledLogger routes retryablehttp logs into logr. Debug maps to V(1).
type leveledLogger struct {
	log logr.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error(errorFrom(keysAndValues), msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Info(msg, keysAndValues...)
}

func errorFrom(keysAndValues []interface{}) error {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok && key == "error" {
			if err, ok := keysAndValues[i+1].(error); ok {
				return err
			}
		}
	}
	return errors.New("request failed")
}
