package instance

import (
	"github.com/m-mizutani/goerr/v2"
)

const maxNameLength = 128

// ValidateName validates the instance name
func ValidateName(name string) error {
	if name == "" {
		return goerr.New("instance name cannot be empty")
	}
	if len(name) > maxNameLength {
		return goerr.New("instance name is too long",
			goerr.V("max", maxNameLength),
			goerr.V("length", len(name)))
	}
	return nil
}

// ValidateModelConfig validates the model/provider configuration
func ValidateModelConfig(cfg *ModelConfig) error {
	if !cfg.Provider.IsValid() {
		return goerr.New("invalid LLM provider", goerr.V("provider", cfg.Provider))
	}
	if cfg.Model == "" {
		return goerr.New("model cannot be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return goerr.New("temperature out of range", goerr.V("temperature", cfg.Temperature))
	}
	return nil
}

// Validate validates the complete instance
func (x *AgentInstance) Validate() error {
	if !x.ID.IsValid() {
		return goerr.New("invalid instance ID", goerr.V("id", x.ID))
	}
	if !x.WorkflowID.IsValid() {
		return goerr.New("invalid workflow ID", goerr.V("workflow_id", x.WorkflowID))
	}
	if err := ValidateName(x.Name); err != nil {
		return err
	}
	if err := ValidateModelConfig(&x.Model); err != nil {
		return err
	}
	if !x.Status.IsValid() {
		return goerr.Wrap(ErrInvalidStatus, "unknown status", goerr.V("status", x.Status))
	}
	if !x.Persistence.StorageMode.IsValid() {
		return goerr.New("invalid storage mode", goerr.V("storage_mode", x.Persistence.StorageMode))
	}
	return nil
}
