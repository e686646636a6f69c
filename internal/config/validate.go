package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ewilliams-labs/vibelens/internal/logging"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report koanf keys rather than Go field names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and the cross-field rules between sections.
func (c *Config) Validate() error {
	if err := getValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validation: %w", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("validation failed: logging.level %q is not a known level", c.Logging.Level)
	}

	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.Gemini.APIKey == "" {
			return errors.New("validation failed: embedding.gemini.api_key is required when embedding.provider is gemini")
		}
		if c.Embedding.Gemini.Model == "" || c.Embedding.Gemini.VisionModel == "" {
			return errors.New("validation failed: embedding.gemini model and vision_model are required")
		}
	case "ollama":
		if _, err := url.ParseRequestURI(c.Embedding.Ollama.Host); err != nil {
			return fmt.Errorf("validation failed: embedding.ollama.host: %w", err)
		}
		if c.Embedding.Ollama.VisionModel == "" || c.Embedding.Ollama.EmbedModel == "" {
			return errors.New("validation failed: embedding.ollama vision_model and embed_model are required")
		}
	}

	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}
