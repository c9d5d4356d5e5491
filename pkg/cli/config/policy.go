package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Policy configures the default persistence policy applied to new
// instances. Without a file the built-in defaults apply.
type Policy struct {
	Path string
}

// Flags returns CLI flags for policy configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-defaults",
			Usage:       "YAML file with default persistence policy",
			Sources:     cli.EnvVars("NAGARE_POLICY_DEFAULTS"),
			Destination: &p.Path,
		},
	}
}

// policyFile is the YAML layout of the policy defaults file. Absent keys
// keep the built-in defaults.
type policyFile struct {
	SaveChatHistory   *bool   `yaml:"save_chat_history"`
	SaveErrors        *bool   `yaml:"save_errors"`
	SaveTaskExecution *bool   `yaml:"save_task_execution"`
	SaveMedia         *bool   `yaml:"save_media"`
	StorageMode       *string `yaml:"storage_mode"`
	RetentionDays     *int    `yaml:"retention_days"`
}

// Load reads the policy defaults file merged over the built-in defaults
func (p *Policy) Load() (instance.PersistenceConfig, error) {
	cfg := instance.DefaultPersistenceConfig()
	if p.Path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(p.Path)
	if err != nil {
		return cfg, goerr.Wrap(err, "failed to read policy defaults file",
			goerr.V("path", p.Path))
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, goerr.Wrap(err, "failed to parse policy defaults file",
			goerr.V("path", p.Path))
	}

	patch := &instance.PersistenceConfigPatch{
		SaveChatHistory:   file.SaveChatHistory,
		SaveErrors:        file.SaveErrors,
		SaveTaskExecution: file.SaveTaskExecution,
		SaveMedia:         file.SaveMedia,
		RetentionDays:     file.RetentionDays,
	}
	if file.StorageMode != nil {
		mode := instance.StorageMode(*file.StorageMode)
		if !mode.IsValid() {
			return cfg, goerr.New("invalid storage mode in policy defaults",
				goerr.V("storage_mode", *file.StorageMode),
				goerr.V("path", p.Path))
		}
		patch.StorageMode = &mode
	}

	return cfg.Apply(patch), nil
}
