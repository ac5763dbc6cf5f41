package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/shukalink/agrolink/agent/contract"
)

// Config selects the chat model per agent, falling back to the shared
// default. The supervisor runs cold (temperature 0) so routing stays
// deterministic; specialists get a little room.
type Config struct {
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"llama-3.1-8b-instant"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	SupervisorModel       string  `envconfig:"SUPERVISOR_MODEL" split_words:"true"`
	AdvisoryModel         string  `envconfig:"ADVISORY_MODEL" split_words:"true"`
	LogisticsModel        string  `envconfig:"LOGISTICS_MODEL" split_words:"true"`
	SalesModel            string  `envconfig:"SALES_MODEL" split_words:"true"`
	SupervisorTemperature float64 `envconfig:"SUPERVISOR_TEMPERATURE" split_words:"true" default:"0"`
	AgentTemperature      float64 `envconfig:"AGENT_TEMPERATURE" split_words:"true" default:"0.3"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// Configured reports whether a reasoning provider can be reached at all.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// ModelFor resolves the model name and temperature for one route.
func (c Config) ModelFor(route contractx.Route) (string, float64) {
	model := strings.TrimSpace(c.Model)
	temp := c.AgentTemperature

	switch route {
	case contractx.RouteAdvisory:
		if v := strings.TrimSpace(c.AdvisoryModel); v != "" {
			model = v
		}
	case contractx.RouteLogistics:
		if v := strings.TrimSpace(c.LogisticsModel); v != "" {
			model = v
		}
	case contractx.RouteSales:
		if v := strings.TrimSpace(c.SalesModel); v != "" {
			model = v
		}
	}
	return model, temp
}

// SupervisorModelName resolves the routing model and its temperature.
func (c Config) SupervisorModelName() (string, float64) {
	model := strings.TrimSpace(c.Model)
	if v := strings.TrimSpace(c.SupervisorModel); v != "" {
		model = v
	}
	return model, c.SupervisorTemperature
}
