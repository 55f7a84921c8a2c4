package flow

import "errors"

// ErrConfig marks mistakes made while assembling a template tree, as opposed
// to failures that happen while a conversation runs. Checks wrap it with
// fmt.Errorf and %w; callers test with errors.Is.
var ErrConfig = errors.New("invalid flow configuration")
