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
	"encoding/json"
	"strings"
)

// Outcome is the classification of an execution's state.
type Outcome string

const (
	OutcomeRunning   Outcome = "Running"
	OutcomeSucceeded Outcome = "Succeeded"
	OutcomeFailed    Outcome = "Failed"
	OutcomeTimedOut  Outcome = "TimedOut"
)

// The status vocabulary is defined by the Abot service, not by us, which is
// why the mapping lives in exactly one place. Matching is case-insensitive.
var (
	passedSynonyms = map[string]bool{
		"passed":    true,
		"succeeded": true,
		"completed": true,
		"complete":  true,
	}
	failedSynonyms = map[string]bool{
		"failed":     true,
		"error":      true,
		"terminated": true,
	}
)

// ClassifyStatus extracts the status token from a raw execution-status body
// and maps it onto an outcome. The service reports its verdict under either
// `overallStatus` or `state`. An unparseable body, an absent field, or a
// token outside both synonym sets all mean the run is still in progress;
// classification never fails. The matched token is returned alongside the
// outcome for use in summaries.
func ClassifyStatus(raw []byte) (Outcome, string) {
	var fields struct {
		OverallStatus string `json:"overallStatus"`
		State         string `json:"state"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return OutcomeRunning, ""
	}
	token := fields.OverallStatus
	if token == "" {
		token = fields.State
	}
	switch normalized := strings.ToLower(strings.TrimSpace(token)); {
	case passedSynonyms[normalized]:
		return OutcomeSucceeded, token
	case failedSynonyms[normalized]:
		return OutcomeFailed, token
	default:
		return OutcomeRunning, token
	}
}
