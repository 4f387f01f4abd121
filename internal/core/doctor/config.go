package doctor

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/abroad/internal/core/config"
)

// ConfigCheck runs deep config validation and reports warnings.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a new config check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.cfg.ValidateDeep(c.configPath); err != nil {
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				result.Items = append(result.Items, CheckItem{
					Label:  fe.Field,
					Status: StatusFail,
					Detail: fe.Err.Error(),
				})
			}
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "config",
				Status: StatusFail,
				Detail: err.Error(),
			})
		}
	}

	for _, w := range c.cfg.Warnings() {
		result.Items = append(result.Items, CheckItem{
			Label:  w.Item,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	if len(result.Items) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusPass,
			Detail: c.configPath,
		})
	}

	return result
}
