package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig - ошибка настройки или авторизации.
	ErrConfig = errors.New("configuration error")
	// ErrRuntime - сетевая или временная ошибка сервиса.
	ErrRuntime = errors.New("runtime error")
)

// ConfigError описывает, что именно не так с настройками.
type ConfigError struct {
	Provider string
	Msg      string
	Err      error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// RuntimeError - сбой при обращении к сервису.
type RuntimeError struct {
	Provider   string
	StatusCode int
	Msg        string
	Err        error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func (e *RuntimeError) Is(target error) bool { return target == ErrRuntime }

func configErrorf(provider, format string, args ...any) *ConfigError {
	return &ConfigError{Provider: provider, Msg: fmt.Sprintf(format, args...)}
}
