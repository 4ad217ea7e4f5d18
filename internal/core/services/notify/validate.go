package notify

import (
	"fmt"
	"net/url"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/pkg/errors"
)

func prepareDefaults(opts *domain.NotifierOptions) *domain.NotifierOptions {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Cooldown == 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return opts
}

func validateOptions(opts *domain.NotifierOptions) error {
	if opts.Cooldown < 0 {
		return errors.NewValidationError("cooldown", opts.Cooldown, fmt.Errorf("must not be negative"))
	}
	if opts.Timeout < 0 {
		return errors.NewValidationError("timeout", opts.Timeout, fmt.Errorf("must not be negative"))
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return errors.NewValidationError("base_url", opts.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewValidationError("base_url", opts.BaseURL, fmt.Errorf("scheme must be http or https"))
	}
	return nil
}
