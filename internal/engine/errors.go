package engine

import "fmt"

// errorf wraps a taxonomy category with operation-specific detail.
func errorf(category error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{category}, args...)...)
}
