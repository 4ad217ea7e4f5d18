package rotation

import (
	"os"
	"strings"

	"github.com/iamNilotpal/gzlog/internal/core/domain"
)

const (
	DefaultWhen        = domain.WhenDay
	DefaultInterval    = 1
	DefaultBackupCount = 12

	DefaultFilePermission os.FileMode = 0644
	DefaultDirPermission  os.FileMode = 0755
)

// DefaultPolicy returns daily rotation keeping twelve archives.
func DefaultPolicy() *domain.RotationPolicy {
	return &domain.RotationPolicy{
		Kind:        domain.RotateByTime,
		When:        DefaultWhen,
		Interval:    DefaultInterval,
		BackupCount: DefaultBackupCount,
	}
}

func prepareDefaults(policy *domain.RotationPolicy) *domain.RotationPolicy {
	if policy.Kind == "" {
		policy.Kind = domain.RotateByTime
	}

	policy.When = strings.ToUpper(strings.TrimSpace(policy.When))
	if policy.When == "" {
		policy.When = DefaultWhen
	}

	if policy.Interval == 0 {
		policy.Interval = DefaultInterval
	}

	return policy
}
