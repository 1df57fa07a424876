package install

import "fmt"

// Step identifies one of the ordered provisioning steps.
type Step int

const (
	StepConfigFiles Step = iota
	StepDependencies
	StepDatabaseConfig
	StepMigrations
	StepAdminUser
	StepServices
	StepFinalize
)

// StepCount is the number of provisioning steps.
const StepCount = 7

var stepNames = [StepCount]string{
	"config_files",
	"dependencies",
	"database_config",
	"migrations",
	"admin_user",
	"services",
	"finalize",
}

var stepLabels = [StepCount]string{
	"Création des fichiers de configuration",
	"Installation des dépendances",
	"Configuration de la base de données",
	"Exécution des migrations",
	"Création du compte administrateur",
	"Configuration des services",
	"Finalisation",
}

// Steps returns every step in execution order.
func Steps() []Step {
	out := make([]Step, StepCount)
	for i := range out {
		out[i] = Step(i)
	}
	return out
}

// Valid reports whether s is within 0..StepCount-1.
func (s Step) Valid() bool { return s >= 0 && s < StepCount }

// String returns the step name.
func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Label returns the French label shown in step logs.
func (s Step) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return stepLabels[s]
}

// StepResult is the uniform result of a provisioning action.
type StepResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// Succeeded builds a successful result.
func Succeeded(message, details string) StepResult {
	return StepResult{Success: true, Message: message, Details: details}
}

// Failed builds a failed result.
func Failed(message string) StepResult {
	return StepResult{Success: false, Message: message}
}
