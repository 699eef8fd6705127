package provider

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ValidateCapabilities checks that a provider can serve the episode picker
func ValidateCapabilities(caps ProviderCapabilities) error {
	if len(caps.MediaTypes) == 0 {
		return fmt.Errorf("provider must support at least one media type")
	}

	for _, required := range []MediaType{MediaTypeShow, MediaTypeEpisode} {
		if !lo.Contains(caps.MediaTypes, required) {
			return fmt.Errorf("provider must support %s lookups", required)
		}
	}

	return nil
}

// ValidateConfig checks a configuration map against a provider schema.
func ValidateConfig(schema ConfigSchema, config map[string]interface{}) error {
	var missing []string
	for _, field := range schema.Fields {
		if !field.Required {
			continue
		}
		value, ok := config[field.Name]
		if !ok {
			missing = append(missing, field.Name)
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, field.Name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// MaskConfig returns a copy of config with sensitive values obscured.
func MaskConfig(schema ConfigSchema, config map[string]interface{}) map[string]interface{} {
	sensitive := make(map[string]bool, len(schema.Fields))
	for _, field := range schema.Fields {
		sensitive[field.Name] = field.Sensitive
	}

	masked := make(map[string]interface{}, len(config))
	for key, value := range config {
		if s, ok := value.(string); ok && sensitive[key] {
			masked[key] = maskSecret(s)
			continue
		}
		masked[key] = value
	}
	return masked
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
