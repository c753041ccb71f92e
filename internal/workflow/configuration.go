package workflow

import (
	"fmt"
	"strings"
)

const unknownStepErrorTemplateConstant = "unknown step %q, available steps: %s"

// UnknownStepError indicates a requested step name matches no registered step.
type UnknownStepError struct {
	RequestedName  string
	AvailableNames []string
}

// Error describes the unknown step.
func (unknownStepError UnknownStepError) Error() string {
	return fmt.Sprintf(unknownStepErrorTemplateConstant, unknownStepError.RequestedName, strings.Join(unknownStepError.AvailableNames, ", "))
}

// SelectSteps resolves requested step names against the registered steps,
// preserving the requested order. An empty request selects every registered
// step in registration order.
func SelectSteps(requestedNames []string, registeredSteps []Step) ([]Step, error) {
	if len(requestedNames) == 0 {
		selectedSteps := make([]Step, len(registeredSteps))
		copy(selectedSteps, registeredSteps)
		return selectedSteps, nil
	}

	stepsByName := make(map[string]Step, len(registeredSteps))
	availableNames := make([]string, 0, len(registeredSteps))
	for _, registeredStep := range registeredSteps {
		stepsByName[registeredStep.Name()] = registeredStep
		availableNames = append(availableNames, registeredStep.Name())
	}

	selectedSteps := make([]Step, 0, len(requestedNames))
	for _, requestedName := range requestedNames {
		trimmedName := strings.TrimSpace(requestedName)
		if len(trimmedName) == 0 {
			continue
		}
		selectedStep, stepExists := stepsByName[trimmedName]
		if !stepExists {
			return nil, UnknownStepError{RequestedName: trimmedName, AvailableNames: availableNames}
		}
		selectedSteps = append(selectedSteps, selectedStep)
	}
	return selectedSteps, nil
}
