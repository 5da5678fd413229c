package internal

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Processor validates and converts one raw argument value.
type Processor interface {
	Process(value string) (any, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(value string) (any, error)

func (f ProcessorFunc) Process(value string) (any, error) {
	return f(value)
}

var (
	errValueMissing   = errors.New("Please enter a value")
	errMultipleValues = errors.New("multiple values not allowed")
)

// Built-in processors.
var (
	IntArg Processor = ProcessorFunc(func(s string) (any, error) {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.New("Please enter an integer value")
		}
		return v, nil
	})

	FloatArg Processor = ProcessorFunc(func(s string) (any, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, errors.New("Please enter a number")
		}
		return v, nil
	})

	BoolArg Processor = ProcessorFunc(func(s string) (any, error) {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off", "":
			return false, nil
		}
		return nil, errors.New("Value should be true or false")
	})

	StringArg Processor = ProcessorFunc(func(s string) (any, error) {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, errValueMissing
		}
		return s, nil
	})

	UUIDArg Processor = ProcessorFunc(func(s string) (any, error) {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, errors.New("Please enter a valid UUID")
		}
		return id, nil
	})
)

// OneOf accepts only the listed values.
func OneOf(values ...string) Processor {
	return ProcessorFunc(func(s string) (any, error) {
		if slices.Contains(values, s) {
			return s, nil
		}
		return nil, fmt.Errorf("Value must be one of: %s", strings.Join(values, "; "))
	})
}

// MaxLength rejects strings longer than n runes.
func MaxLength(n int) Processor {
	return ProcessorFunc(func(s string) (any, error) {
		if len([]rune(s)) > n {
			return nil, fmt.Errorf("Enter a value not more than %d characters long", n)
		}
		return s, nil
	})
}

// ProcessorOption configures an argument processor.
type ProcessorOption func(*argProcessor)

// Required makes a missing or invalid value a 400.
func Required() ProcessorOption {
	return func(p *argProcessor) { p.required = true }
}

// Strict makes an invalid value a 400.
func Strict() ProcessorOption {
	return func(p *argProcessor) { p.strict = true }
}

// TakesList collects every value of the argument into a []any.
func TakesList() ProcessorOption {
	return func(p *argProcessor) { p.takesList = true }
}

// ListItemInvalidates empties the list and marks the argument invalid when
// any item fails.
func ListItemInvalidates() ProcessorOption {
	return func(p *argProcessor) { p.itemInvalidates = true }
}

// ShowMsg adds the validation message to the user's messages.
func ShowMsg() ProcessorOption {
	return func(p *argProcessor) { p.showMsg = true }
}

// CustomMsg replaces the validation message and shows it.
func CustomMsg(msg string) ProcessorOption {
	return func(p *argProcessor) {
		p.customMsg = msg
		p.showMsg = true
	}
}

type argProcessor struct {
	p               Processor
	name            string
	customMsg       string
	required        bool
	strict          bool
	takesList       bool
	itemInvalidates bool
	showMsg         bool
}

// argResult is the outcome of processing one argument.
type argResult struct {
	value   any
	err     error
	set     bool
	invalid bool
}

func (ap *argProcessor) process(raw []string) argResult {
	if ap.takesList {
		return ap.processList(raw)
	}
	return ap.processScalar(raw)
}

func (ap *argProcessor) processScalar(raw []string) argResult {
	switch {
	case len(raw) == 0:
		if ap.required {
			return argResult{set: true, invalid: true, err: errValueMissing}
		}
		return argResult{}
	case len(raw) > 1:
		return argResult{set: true, invalid: true, err: errMultipleValues}
	case ap.p == nil:
		return argResult{set: true, value: raw[0]}
	}

	v, err := ap.p.Process(raw[0])
	if err != nil {
		return argResult{set: true, invalid: true, err: err}
	}
	return argResult{set: true, value: v}
}

// processList drops failing items unless itemInvalidates is set. Dropped
// items report their error but leave the argument valid.
func (ap *argProcessor) processList(raw []string) argResult {
	out := make([]any, 0, len(raw))
	var firstErr error
	for _, s := range raw {
		if ap.p == nil {
			out = append(out, s)
			continue
		}
		v, err := ap.p.Process(s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out = append(out, v)
	}

	if firstErr != nil && ap.itemInvalidates {
		return argResult{set: true, value: []any{}, invalid: true, err: firstErr}
	}
	if ap.required && len(out) == 0 {
		return argResult{set: true, value: out, invalid: true, err: errValueMissing}
	}
	return argResult{set: true, value: out, err: firstErr}
}

func (ap *argProcessor) message(err error) string {
	if ap.customMsg != "" {
		return ap.name + ": " + ap.customMsg
	}
	return ap.name + ": " + err.Error()
}

// processArgs runs the view's processors against URL and query arguments.
// URL arguments win over query arguments. Non-string URL arguments pass
// through untouched.
func (v *View) processArgs() error {
	if len(v.processors) == 0 {
		return nil
	}

	var query url.Values
	if req := v.c.Request(); req != nil {
		query = req.URL.Query()
	}

	var bad []string
	for _, ap := range v.processors {
		var raw []string
		if urlValue, ok := v.args[ap.name]; ok {
			s, isString := urlValue.(string)
			if !isString {
				continue
			}
			raw = []string{s}
		} else {
			raw = query[ap.name]
		}

		res := ap.process(raw)
		if !res.set {
			continue
		}
		if res.invalid && !ap.takesList {
			res.value = nil
		}
		v.args[ap.name] = res.value

		if res.err != nil && ap.showMsg {
			v.c.User().AddMessage("error", ap.message(res.err))
		}
		if res.invalid && (ap.strict || ap.required || v.StrictArgs) {
			bad = append(bad, ap.message(res.err))
		}
	}

	if len(bad) > 0 {
		return ErrBadRequest("", WithError(fmt.Errorf("%s had bad args: %s", v.endpoint, strings.Join(bad, ", "))))
	}
	return nil
}
