package envstruct

import (
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/myrjola/whodunit/internal/errors"
)

var (
	ErrEnvNotSet    = errors.NewSentinel("environment variable not set")
	ErrInvalidValue = errors.NewSentinel("invalid configuration value")
)

// Populate populates the fields of the pointer to struct v with values from environ.
//
// environ maps environment variable names to values, see [Environ] for the process environment.
// Fields in the struct v must be tagged with `env:"ENV_VAR"` where ENV_VAR is the name of the environment variable.
// If no environment variable matching ENV_VAR is provided, the field must be tagged with default value
// `envDefault:"value"` or else ErrEnvNotSet is returned. Values that cannot be parsed into the field type return
// ErrInvalidValue.
func Populate(v any, environ map[string]string) error {
	err := env.ParseWithOptions(v, env.Options{ //nolint:exhaustruct // defaults are fine for the rest.
		Environment:     environ,
		RequiredIfNoDef: true,
	})
	if err == nil {
		return nil
	}

	var aggregate env.AggregateError
	if !errors.As(err, &aggregate) {
		return errors.Wrap(errors.Join(ErrInvalidValue, err), "parse environment")
	}

	errorList := make([]error, 0, len(aggregate.Errors))
	for _, fieldErr := range aggregate.Errors {
		var notSet env.EnvVarIsNotSetError
		if errors.As(fieldErr, &notSet) {
			errorList = append(errorList, errors.Wrap(ErrEnvNotSet, "environment variable not set",
				slog.String("envVarName", notSet.Key)))
			continue
		}
		errorList = append(errorList, errors.Wrap(errors.Join(ErrInvalidValue, fieldErr), "invalid value"))
	}

	// Join the errors into a single error.
	return errors.Join(errorList...)
}

// Environ returns the process environment in the form accepted by [Populate].
func Environ() map[string]string {
	return env.ToMap(os.Environ())
}
