package nn

import "fmt"

// ConfigurationError reports an invalid layer-size specification at
// construction time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid network configuration: " + e.Reason
}

// ShapeMismatchError reports a checkpoint parameter whose shape disagrees
// with the architecture it is being loaded into.
type ShapeMismatchError struct {
	Name string
	Want []int
	Got  []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("parameter %s: checkpoint shape %v does not match architecture shape %v",
		e.Name, e.Got, e.Want)
}
