package admin

import (
	"fmt"
	"regexp"

	"beacon/pkg/cel"
)

// Analytics event numbers live in the event1 to event500 range.
const maxEventNumber = 500

var dimensionKeyPattern = regexp.MustCompile(`^(eVar|prop|list)[1-9][0-9]{0,2}$|^[a-zA-Z][a-zA-Z0-9_]*$`)

func ValidateTaggingRule(req CreateTaggingRuleRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Expression == "" {
		return fmt.Errorf("expression is required")
	}

	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to create CEL evaluator: %w", err)
	}
	if err := evaluator.ValidateMatchExpression(req.Expression); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}

	if err := validateEvents(req.Events); err != nil {
		return err
	}
	return validateDimensions(req.Dimensions)
}

func ValidateUpdateTaggingRule(req UpdateTaggingRuleRequest) error {
	if req.Expression != nil && *req.Expression != "" {
		evaluator, err := cel.NewEvaluator()
		if err != nil {
			return fmt.Errorf("failed to create CEL evaluator: %w", err)
		}
		if err := evaluator.ValidateMatchExpression(*req.Expression); err != nil {
			return fmt.Errorf("invalid CEL expression: %w", err)
		}
	}
	if req.Events != nil {
		if err := validateEvents(*req.Events); err != nil {
			return err
		}
	}
	if req.Dimensions != nil {
		return validateDimensions(*req.Dimensions)
	}
	return nil
}

func validateEvents(events []int64) error {
	for _, ev := range events {
		if ev < 1 || ev > maxEventNumber {
			return fmt.Errorf("event number %d out of range 1-%d", ev, maxEventNumber)
		}
	}
	return nil
}

func validateDimensions(dims map[string]string) error {
	for key := range dims {
		if !dimensionKeyPattern.MatchString(key) {
			return fmt.Errorf("invalid dimension key: %s. Expected eVarN, propN, listN or a named variable", key)
		}
	}
	return nil
}
