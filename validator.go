package stateagent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validator normalizes a candidate field value or rejects it with a
// human-readable reason. Validators run inside State.Set before type
// coercion; the returned value is what gets stored (after coercion).
//
// A Field carries at most one Validator; use Chain to compose several rules
// into one.
type Validator func(value any) (any, error)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email returns a validator that trims whitespace and accepts addresses of
// the form local@domain.tld (ASCII local part, TLD of at least two letters).
// It returns the trimmed string.
func Email() Validator {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("email must be a string")
		}
		s = strings.TrimSpace(s)
		if !emailPattern.MatchString(s) {
			return nil, fmt.Errorf("invalid email format")
		}
		return s, nil
	}
}

// Range returns a validator that accepts a number, or a numeric string, within
// [minVal, maxVal]. Numeric strings are converted to float64; numbers keep
// their original type.
func Range(minVal, maxVal float64) Validator {
	return rangeValidator(&minVal, &maxVal)
}

// Min is Range with no upper bound.
func Min(minVal float64) Validator {
	return rangeValidator(&minVal, nil)
}

// Max is Range with no lower bound.
func Max(maxVal float64) Validator {
	return rangeValidator(nil, &maxVal)
}

func rangeValidator(minVal, maxVal *float64) Validator {
	return func(value any) (any, error) {
		var n float64
		switch v := value.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert '%s' to number", v)
			}
			n = f
			value = f
		case int:
			n = float64(v)
		case int64:
			n = float64(v)
		case float32:
			n = float64(v)
		case float64:
			n = v
		default:
			return nil, fmt.Errorf("value must be a number")
		}
		if minVal != nil && n < *minVal {
			return nil, fmt.Errorf("value must be at least %v", *minVal)
		}
		if maxVal != nil && n > *maxVal {
			return nil, fmt.Errorf("value must be at most %v", *maxVal)
		}
		return value, nil
	}
}

// Length returns a validator that trims a string and checks the trimmed
// length against [minLen, maxLen]. maxLen <= 0 disables the upper bound.
// It returns the trimmed string.
func Length(minLen, maxLen int) Validator {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("value must be a string")
		}
		s = strings.TrimSpace(s)
		if len(s) < minLen {
			return nil, fmt.Errorf("value must be at least %d characters long", minLen)
		}
		if maxLen > 0 && len(s) > maxLen {
			return nil, fmt.Errorf("value must be at most %d characters long", maxLen)
		}
		return s, nil
	}
}

// Regex returns a validator that requires a string matching pattern at the
// start of the value (the match is anchored at position zero, not at the
// end). message is the rejection reason; an empty message defaults to
// "Invalid format". The original string is returned unchanged.
// Regex panics if pattern does not compile; declare validators at schema
// definition time.
func Regex(pattern, message string) Validator {
	re := regexp.MustCompile(pattern)
	if message == "" {
		message = "Invalid format"
	}
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("value must be a string")
		}
		loc := re.FindStringIndex(s)
		if loc == nil || loc[0] != 0 {
			return nil, fmt.Errorf("%s", message)
		}
		return s, nil
	}
}

// Choice returns a validator that accepts only members of choices and returns
// the value unchanged.
func Choice(choices ...string) Validator {
	return func(value any) (any, error) {
		if s, ok := value.(string); ok {
			for _, c := range choices {
				if s == c {
					return value, nil
				}
			}
		}
		return nil, fmt.Errorf("value must be one of: %s", strings.Join(choices, ", "))
	}
}

// Chain composes validators left to right: the output of one becomes the
// input of the next. The first rejection wins.
func Chain(vs ...Validator) Validator {
	return func(value any) (any, error) {
		var err error
		for _, v := range vs {
			value, err = v(value)
			if err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}
