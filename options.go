package warp

import (
	"strconv"
	"strings"
)

// optionPair is one Key=Value assignment from a construction option string.
type optionPair struct {
	key   string
	value string
}

// parseOptions splits construction option strings into ordered Key=Value
// pairs. Each argument may itself contain several comma separated
// assignments, matching the option micro language of the constructors:
//
//	NewZoomMap(2, 1.3, "Ident=detector frame, ID=zoom1")
//
// Empty segments are ignored. A segment without '=' is rejected.
func parseOptions(class string, opts []string) ([]optionPair, error) {
	var pairs []optionPair
	for _, opt := range opts {
		for _, seg := range strings.Split(opt, ",") {
			seg = strings.TrimSpace(seg)
			if seg == "" {
				continue
			}
			key, value, found := strings.Cut(seg, "=")
			if !found {
				return nil, &ConfigurationError{Class: class, Option: seg, Reason: "expected Key=Value"}
			}
			pairs = append(pairs, optionPair{key: strings.TrimSpace(key), value: strings.TrimSpace(value)})
		}
	}
	return pairs, nil
}

// parseBoolOption accepts the 0/1 forms used by option strings as well as
// the usual spellings of true and false.
func parseBoolOption(class, key, value string) (bool, error) {
	switch value {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ConfigurationError{Class: class, Option: key, Reason: "value must be 0 or 1"}
	}
	return b, nil
}

// splitOption removes and returns the last assignment of key from pairs.
// Later assignments win, matching plain attribute assignment order.
func splitOption(pairs []optionPair, key string) (value string, rest []optionPair, found bool) {
	rest = pairs[:0]
	for _, p := range pairs {
		if p.key == key {
			value = p.value
			found = true
			continue
		}
		rest = append(rest, p)
	}
	return value, rest, found
}

// applyPairs assigns the generic Object attributes named in pairs. Any key
// that is not a recognized attribute fails with a ConfigurationError and the
// caller is expected to discard the partially constructed object.
func applyPairs(o *object, pairs []optionPair) error {
	for _, p := range pairs {
		def, ok := attrDefaults[p.key]
		if !ok {
			return &ConfigurationError{Class: o.class, Option: p.key, Reason: "unknown option"}
		}
		switch def.kind {
		case attrString:
			if err := o.SetString(p.key, p.value); err != nil {
				return err
			}
		case attrBool:
			b, err := parseBoolOption(o.class, p.key, p.value)
			if err != nil {
				return err
			}
			if err := o.SetBool(p.key, b); err != nil {
				return err
			}
		case attrInt:
			n, err := strconv.Atoi(p.value)
			if err != nil {
				return &ConfigurationError{Class: o.class, Option: p.key, Reason: "value must be an integer"}
			}
			if err := o.SetInt(p.key, n); err != nil {
				return err
			}
		case attrFloat:
			f, err := strconv.ParseFloat(p.value, 64)
			if err != nil {
				return &ConfigurationError{Class: o.class, Option: p.key, Reason: "value must be a number"}
			}
			if err := o.SetFloat(p.key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyOptions parses opts and assigns the generic attributes they name.
func applyOptions(o *object, opts []string) error {
	pairs, err := parseOptions(o.class, opts)
	if err != nil {
		return err
	}
	return applyPairs(o, pairs)
}
