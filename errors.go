package warp

import "fmt"

// AttributeError reports access to an attribute that does not exist, or an
// accessor whose type does not match the attribute's declared type.
type AttributeError struct {
	Class  string
	Attr   string
	Reason string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute %q of %s: %s", e.Attr, e.Class, e.Reason)
}

// CapabilityError reports a transform requested in a direction the mapping
// does not support.
type CapabilityError struct {
	Class     string
	Direction string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s does not provide a %s transformation", e.Class, e.Direction)
}

// DimensionMismatchError reports incompatible dimensions, either between the
// two halves of a composition or between a mapping and a point batch.
type DimensionMismatchError struct {
	Context string
	Want    int
	Got     int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", e.Context, e.Want, e.Got)
}

// ConvergenceError reports that the iterative inverse solver did not reach
// the convergence tolerance within its iteration bound. Point is the index
// of the offending point within the evaluated batch.
type ConvergenceError struct {
	Class string
	Point int
	Iters int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: iterative inverse did not converge for point %d after %d iterations",
		e.Class, e.Point, e.Iters)
}

// SerializationError reports malformed, truncated or unrecognized persisted
// data. A failed Read leaves the caller's state untouched beyond the
// consumed bytes.
type SerializationError struct {
	Format string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s channel: %s", e.Format, e.Reason)
}

// ConfigurationError reports an unknown construction option key or an
// invalid option or constructor argument. No partial object is created when
// construction fails.
type ConfigurationError struct {
	Class  string
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("%s: option %q: %s", e.Class, e.Option, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Reason)
}
