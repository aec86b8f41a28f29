package agent

import (
	"encoding/json"
	"fmt"

	"github.com/pairprog/cursord/pkg/domain"
)

// ValidationReason identifies which validation rule a sequence violated.
type ValidationReason string

const (
	ReasonNotAnArray         ValidationReason = "not_an_array"
	ReasonMissingType        ValidationReason = "missing_type"
	ReasonUnknownType        ValidationReason = "unknown_type"
	ReasonMissingCoordinates ValidationReason = "missing_coordinates"
	ReasonInvalidButton      ValidationReason = "invalid_button"
	ReasonInvalidDelay       ValidationReason = "invalid_delay"
)

// ValidationError reports the first rule an instruction sequence violated and
// which element violated it.
type ValidationError struct {
	Reason ValidationReason
	Index  int
	Type   domain.InstructionType
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonNotAnArray:
		return "instructions payload is not an array"
	case ReasonMissingType:
		return fmt.Sprintf("instruction %d is missing a type", e.Index)
	case ReasonUnknownType:
		return fmt.Sprintf("instruction %d has unknown type %q", e.Index, e.Type)
	case ReasonMissingCoordinates:
		return fmt.Sprintf("instruction %d (%s) is missing x/y coordinates", e.Index, e.Type)
	case ReasonInvalidButton:
		return fmt.Sprintf("instruction %d (%s) has an invalid button", e.Index, e.Type)
	case ReasonInvalidDelay:
		return fmt.Sprintf("instruction %d has a non-numeric delay", e.Index)
	default:
		return fmt.Sprintf("instruction %d is invalid", e.Index)
	}
}

// Validate checks a whole instruction sequence against the accepted grammar.
// It fails fast on the first violation and has no side effects: validating the
// same sequence twice yields the same result.
func Validate(instructions []domain.CursorInstruction) error {
	for i, in := range instructions {
		if in.Type == "" {
			return &ValidationError{Reason: ReasonMissingType, Index: i}
		}

		switch in.Type {
		case domain.InstructionMove, domain.InstructionDrag:
			if in.X == nil || in.Y == nil {
				return &ValidationError{Reason: ReasonMissingCoordinates, Index: i, Type: in.Type}
			}
		case domain.InstructionClick, domain.InstructionDoubleClick:
			if in.Button != "" && in.Button != domain.ButtonLeft && in.Button != domain.ButtonRight {
				return &ValidationError{Reason: ReasonInvalidButton, Index: i, Type: in.Type}
			}
		default:
			return &ValidationError{Reason: ReasonUnknownType, Index: i, Type: in.Type}
		}
	}
	return nil
}

// ParseInstructions decodes a raw JSON payload into an instruction sequence
// and validates it. Payloads that are not an array fail with NotAnArray;
// elements with non-numeric coordinates or delay fail with the matching rule.
func ParseInstructions(data []byte) ([]domain.CursorInstruction, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: ReasonNotAnArray}
	}

	instructions := make([]domain.CursorInstruction, 0, len(raw))
	for i, r := range raw {
		// Probe the fields individually before the typed decode so a decode
		// failure is attributed to the rule that was actually broken.
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(r, &fields); err != nil {
			return nil, &ValidationError{Reason: ReasonMissingType, Index: i}
		}

		typRaw, ok := fields["type"]
		if !ok {
			return nil, &ValidationError{Reason: ReasonMissingType, Index: i}
		}
		var typ domain.InstructionType
		if err := json.Unmarshal(typRaw, &typ); err != nil {
			return nil, &ValidationError{Reason: ReasonUnknownType, Index: i}
		}

		for _, key := range []string{"x", "y"} {
			if v, ok := fields[key]; ok {
				var n int
				if err := json.Unmarshal(v, &n); err != nil {
					return nil, &ValidationError{Reason: ReasonMissingCoordinates, Index: i, Type: typ}
				}
			}
		}
		if v, ok := fields["button"]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, &ValidationError{Reason: ReasonInvalidButton, Index: i, Type: typ}
			}
		}
		if v, ok := fields["delay"]; ok {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				return nil, &ValidationError{Reason: ReasonInvalidDelay, Index: i}
			}
		}

		var in domain.CursorInstruction
		if err := json.Unmarshal(r, &in); err != nil {
			return nil, &ValidationError{Reason: ReasonUnknownType, Index: i, Type: typ}
		}
		instructions = append(instructions, in)
	}

	if err := Validate(instructions); err != nil {
		return nil, err
	}
	return instructions, nil
}
