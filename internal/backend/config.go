package backend

import (
	"errors"
	"fmt"

	"fintrack/internal/config"
)

// FromAppConfig picks the backend fields out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	kind := BackendType(appConfig.DataBackend)
	if !kind.IsValid() {
		return Config{}, fmt.Errorf("unknown data backend %q", appConfig.DataBackend)
	}

	return Config{
		Type:         kind,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
		MemoryID:     "memory",
	}, nil
}

// Validate reports every missing setting for the selected backend at once.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("unknown data backend %q", c.Type)
	}
	if c.Type != SQLiteBackend {
		return nil
	}
	var errs []error
	if c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("sqlite backend needs a database path"))
	}
	if c.AMQPURL != "" {
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("mirror needs an AMQP exchange"))
		}
		if c.AMQPQueue == "" {
			errs = append(errs, errors.New("mirror needs an AMQP queue"))
		}
	}
	return errors.Join(errs...)
}
