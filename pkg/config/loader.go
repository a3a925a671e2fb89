package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into the configuration struct, loading a
// .env file first if one is present. Each configuration type is parsed once
// per process; later calls return the cached value, so components
// constructed at different times see identical configuration.
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	name := typeName[T]()

	mu.RLock()
	cached, ok := loaded[name]
	mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if cached, ok := loaded[name]; ok {
		// Another goroutine parsed the same type first; keep its copy.
		*v = cached.(T)
		return nil
	}
	loaded[name] = *v
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
