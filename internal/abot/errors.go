/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package abot

import (
	"errors"
	"fmt"
)

// requestError is the common shape of a failed call against the Abot API.
// Transport is set when the HTTP round trip itself failed; otherwise
// StatusCode carries the response status, or stays zero for a 2xx answer
// whose body broke the contract (undecodable, or missing a required field).
type requestError struct {
	Op         string
	StatusCode int
	Transport  bool
	Err        error
}

func (e *requestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("abot %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("abot %s: %v", e.Op, e.Err)
}

func (e *requestError) Unwrap() error { return e.Err }

// AuthError indicates the login endpoint rejected the credentials, or
// answered without a token.
type AuthError struct{ requestError }

// ConfigUpdateError indicates update_config_properties was not acknowledged.
type ConfigUpdateError struct{ requestError }

// TriggerError indicates feature_files/execute did not accept the execution.
type TriggerError struct{ requestError }

// StatusQueryError indicates an execution status query failed outright. The
// caller decides whether to retry in place; a single failed query is not
// evidence of an execution problem.
type StatusQueryError struct{ requestError }

// IsTransient reports whether err looks like a transient remote failure: the
// round trip never completed, or the service answered 5xx. Permanent
// rejections (4xx) are not transient, and neither is a 2xx answer with a
// broken body: a service that keeps answering without a token is rejecting
// the request, not flaking.
func IsTransient(err error) bool {
	var (
		authErr   *AuthError
		cfgErr    *ConfigUpdateError
		trigErr   *TriggerError
		statusErr *StatusQueryError
		re        requestError
	)
	switch {
	case errors.As(err, &authErr):
		re = authErr.requestError
	case errors.As(err, &cfgErr):
		re = cfgErr.requestError
	case errors.As(err, &trigErr):
		re = trigErr.requestError
	case errors.As(err, &statusErr):
		re = statusErr.requestError
	default:
		return false
	}
	return re.Transport || re.StatusCode >= 500
}
