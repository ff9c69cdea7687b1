// config.go
// ---------
// Config carries the tunables of the execution pipeline: retry attempts,
// backoff between attempts, transport timeout, client-side rate limiting and
// request correlation. The environment package loads it from defaults, YAML,
// .env files and the process environment, then validates it.
package datacore

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxExecutionAttempts is the default retry budget for a logical operation.
	MaxExecutionAttempts = 3

	// PathSeparator joins the api segment and the path of an Endpoint.
	PathSeparator = "/"

	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
)

var validate = validator.New()

// Config allows per-deployment customization of retries, timeouts and throttling.
type Config struct {
	MaxAttempts     int           `koanf:"max_attempts" validate:"gte=0,lte=20"`
	Timeout         time.Duration `koanf:"timeout" validate:"gte=0"`
	BaseBackoff     time.Duration `koanf:"base_backoff" validate:"gte=0"`
	MaxBackoff      time.Duration `koanf:"max_backoff" validate:"gte=0"`
	RequestIDHeader string        `koanf:"request_id_header"`
	UserAgent       string        `koanf:"user_agent"`
	RateLimit       float64       `koanf:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
	RateBurst       int           `koanf:"rate_burst" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when nothing is supplied.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: MaxExecutionAttempts,
		Timeout:     30 * time.Second,
		MaxBackoff:  30 * time.Second,
		RateBurst:   1,
	}
}

// Validate checks struct constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.BaseBackoff > 0 && c.MaxBackoff > 0 && c.MaxBackoff < c.BaseBackoff {
		return &validationError{field: "MaxBackoff", msg: "must not be lower than BaseBackoff"}
	}
	return nil
}

type validationError struct {
	field string
	msg   string
}

func (e *validationError) Error() string {
	return "invalid config: " + e.field + " " + e.msg
}
