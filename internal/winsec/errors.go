// Copyright (c) 2026 winacl contributors
// winacl - Windows ACL and registry security toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package winsec

import "fmt"

// ArgumentError reports a missing or contradictory argument. Param names the
// offending parameter so callers (and error output) can point at it.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("argument %q must not be empty", e.Param)
	}
	return fmt.Sprintf("argument %q: %s", e.Param, e.Reason)
}

// RangeError reports an argument whose value falls outside its defined
// range or enumeration.
type RangeError struct {
	Param string
	Value any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("argument %q out of range: %v", e.Param, e.Value)
}
