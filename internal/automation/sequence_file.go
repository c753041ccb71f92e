package automation

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

const (
	sequencePathRequiredMessageConstant = "sequence file path must be provided"
	sequenceLoadErrorTemplateConstant   = "failed to load sequence file: %w"
	sequenceParseErrorTemplateConstant  = "failed to parse sequence file: %w"
	sequenceEmptyStepsMessageConstant   = "sequence file must name at least one step"
	sequenceDecodeErrorTemplateConstant = "failed to decode sequence overrides: %w"
	sequenceDecoderTagNameConstant      = "mapstructure"
)

// SequenceDefinition is an ordered step selection loaded from a YAML file,
// optionally carrying per-run overrides of the automation settings.
type SequenceDefinition struct {
	Steps     []string       `yaml:"steps" json:"steps"`
	Overrides map[string]any `yaml:"overrides" json:"overrides"`

	decodedOverrides SequenceOverrides
}

// SequenceOverrides holds the automation settings a sequence file may replace.
// Nil pointers leave the configured value untouched.
type SequenceOverrides struct {
	ContinueOnError         *bool   `mapstructure:"continue_on_error"`
	RetryAttempts           *int    `mapstructure:"retry_attempts"`
	OperationTimeoutSeconds *int    `mapstructure:"operation_timeout_seconds"`
	BranchExistsPolicy      *string `mapstructure:"branch_exists_policy"`
}

// LoadSequenceDefinition reads the sequence definition from disk and performs
// basic validation. Both a bare document and one nested under a "sequence"
// key are accepted.
func LoadSequenceDefinition(filePath string) (SequenceDefinition, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return SequenceDefinition{}, errors.New(sequencePathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return SequenceDefinition{}, fmt.Errorf(sequenceLoadErrorTemplateConstant, readError)
	}

	var definition SequenceDefinition
	if unmarshalError := yaml.Unmarshal(contentBytes, &definition); unmarshalError != nil {
		var wrapper struct {
			Sequence SequenceDefinition `yaml:"sequence" json:"sequence"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Sequence.Steps) > 0 {
			definition = wrapper.Sequence
		} else {
			return SequenceDefinition{}, fmt.Errorf(sequenceParseErrorTemplateConstant, unmarshalError)
		}
	} else if len(definition.Steps) == 0 {
		var wrapper struct {
			Sequence SequenceDefinition `yaml:"sequence" json:"sequence"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Sequence.Steps) > 0 {
			definition = wrapper.Sequence
		}
	}

	sanitizedSteps := make([]string, 0, len(definition.Steps))
	for _, stepName := range definition.Steps {
		trimmedName := strings.TrimSpace(stepName)
		if len(trimmedName) > 0 {
			sanitizedSteps = append(sanitizedSteps, trimmedName)
		}
	}
	definition.Steps = sanitizedSteps
	if len(definition.Steps) == 0 {
		return SequenceDefinition{}, errors.New(sequenceEmptyStepsMessageConstant)
	}

	if len(definition.Overrides) > 0 {
		decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName: sequenceDecoderTagNameConstant,
			Result:  &definition.decodedOverrides,
		})
		if decoderError != nil {
			return SequenceDefinition{}, fmt.Errorf(sequenceDecodeErrorTemplateConstant, decoderError)
		}
		if decodeError := decoder.Decode(definition.Overrides); decodeError != nil {
			return SequenceDefinition{}, fmt.Errorf(sequenceDecodeErrorTemplateConstant, decodeError)
		}
	}

	return definition, nil
}

// ApplyOverrides rewrites the automation settings the definition overrides.
func (definition SequenceDefinition) ApplyOverrides(sequenceConfiguration *SequenceConfiguration) {
	if sequenceConfiguration == nil {
		return
	}
	if definition.decodedOverrides.ContinueOnError != nil {
		sequenceConfiguration.ContinueOnError = *definition.decodedOverrides.ContinueOnError
	}
	if definition.decodedOverrides.RetryAttempts != nil {
		sequenceConfiguration.RetryAttempts = *definition.decodedOverrides.RetryAttempts
	}
	if definition.decodedOverrides.OperationTimeoutSeconds != nil {
		sequenceConfiguration.OperationTimeoutSeconds = *definition.decodedOverrides.OperationTimeoutSeconds
	}
	if definition.decodedOverrides.BranchExistsPolicy != nil {
		sequenceConfiguration.BranchExistsPolicy = *definition.decodedOverrides.BranchExistsPolicy
	}
}
