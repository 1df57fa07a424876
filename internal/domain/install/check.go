package install

// Status is the outcome level of a single environment check.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check names as reported to the wizard. CheckRuntimeVersion keeps the
// historical wire name used by the front-end.
const (
	CheckDatabase       = "database"
	CheckPermissions    = "permissions"
	CheckRuntimeVersion = "php_version"
	CheckExtensions     = "extensions"
	CheckSMTP           = "smtp"
	CheckDirectories    = "directories"
)

// CheckNames lists every check in display order.
var CheckNames = []string{
	CheckDatabase,
	CheckPermissions,
	CheckRuntimeVersion,
	CheckExtensions,
	CheckSMTP,
	CheckDirectories,
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Validation is the aggregated report of validate_config.
type Validation struct {
	Checks  map[string]CheckResult `json:"checks"`
	Overall Status                 `json:"overall_status"`
}

// Aggregate computes the overall status: success iff every check succeeded,
// error if any check failed, warning otherwise. An empty set is an error.
func Aggregate(checks map[string]CheckResult) Status {
	if len(checks) == 0 {
		return StatusError
	}
	overall := StatusSuccess
	for _, c := range checks {
		switch c.Status {
		case StatusError:
			return StatusError
		case StatusSuccess:
		default:
			overall = StatusWarning
		}
	}
	return overall
}

// NewValidation builds a report from individual check results.
func NewValidation(checks map[string]CheckResult) Validation {
	return Validation{Checks: checks, Overall: Aggregate(checks)}
}

// CanInstall reports whether the installation phase may be entered.
// Warnings do not block installation.
func (v Validation) CanInstall() bool {
	return len(v.Checks) > 0 && v.Overall != StatusError
}
