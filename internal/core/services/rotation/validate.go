package rotation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
	"github.com/iamNilotpal/gzlog/pkg/errors"
)

// Validate checks a policy after defaults have been applied.
func Validate(policy *domain.RotationPolicy) error {
	if policy.BackupCount < 0 {
		return errors.NewValidationError(
			"backup_count", policy.BackupCount, fmt.Errorf("must not be negative"),
		)
	}

	switch policy.Kind {
	case domain.RotateBySize:
		if policy.MaxBytes <= 0 {
			return errors.NewValidationError(
				"max_bytes", policy.MaxBytes, fmt.Errorf("size based rotation needs a positive threshold"),
			)
		}
	case domain.RotateByTime:
		if policy.Interval < 1 {
			return errors.NewValidationError(
				"interval", policy.Interval, fmt.Errorf("must be at least 1"),
			)
		}
		if _, err := parseWhen(policy.When); err != nil {
			return errors.NewValidationError("when", policy.When, err)
		}
	default:
		return errors.NewValidationError(
			"kind", policy.Kind, fmt.Errorf("must be %q or %q", domain.RotateByTime, domain.RotateBySize),
		)
	}

	return nil
}

// parseWhen returns the weekday (0 is Monday) for W0-W6 and -1 otherwise.
func parseWhen(when string) (int, error) {
	switch when {
	case domain.WhenSecond, domain.WhenMinute, domain.WhenHour, domain.WhenDay, domain.WhenMidnight:
		return -1, nil
	}

	if strings.HasPrefix(when, domain.WeekdayPrefix) && len(when) == 2 {
		day, err := strconv.Atoi(when[1:])
		if err == nil && day >= 0 && day <= 6 {
			return day, nil
		}
		return -1, fmt.Errorf("invalid weekday rotation %q, expected W0-W6", when)
	}

	return -1, fmt.Errorf("invalid rolling interval %q", when)
}
