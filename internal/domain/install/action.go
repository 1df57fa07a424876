package install

// Action names the unit of work requested from the executor.
type Action string

const (
	ActionTestConnection Action = "test_connection"
	ActionValidateConfig Action = "validate_config"
	ActionInstallStep    Action = "install_step"
	ActionCleanup        Action = "cleanup_installer"
)

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	switch a {
	case ActionTestConnection, ActionValidateConfig, ActionInstallStep, ActionCleanup:
		return true
	}
	return false
}

// Request is the body of POST /api/install.
type Request struct {
	Action  Action `json:"action"`
	Config  Config `json:"config"`
	Step    *int   `json:"step,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

// Response is the body returned by POST /api/install. Checks and Overall are
// only set for validate_config.
type Response struct {
	StepResult
	Checks  map[string]CheckResult `json:"checks,omitempty"`
	Overall Status                 `json:"overall_status,omitempty"`
}
