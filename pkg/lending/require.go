package lending

import "fmt"

// Require returns a tagged error when the condition does not hold.
func Require(condition bool, tag string) error {
	if condition {
		return nil
	}
	return fmt.Errorf("require: %s", tag)
}
