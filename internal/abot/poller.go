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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// MinInterval is the floor applied to non-positive poll intervals; a zero
// interval would busy-loop against the service.
const MinInterval = time.Second

// StatusQuerier is the part of the client the poller needs.
type StatusQuerier interface {
	ExecutionStatus(ctx context.Context, detailed bool) (json.RawMessage, error)
}

// PollOptions bounds one polling run.
type PollOptions struct {
	// Interval between successive status queries. Floored to MinInterval
	// when non-positive.
	Interval time.Duration
	// Timeout bounds the total wait, measured from the first query. Zero
	// resolves to TimedOut at the first still-running classification.
	Timeout time.Duration
	// Detailed selects the detailed status endpoint.
	Detailed bool
}

// Result is the terminal outcome of a polling run. Outcome is one of
// Succeeded, Failed or TimedOut; Summary carries the matched status token or
// a description of why the run timed out.
type Result struct {
	Outcome Outcome
	Summary string
}

// Poll queries execution status until the classifier reports a terminal
// outcome or the deadline passes. Reaching the deadline is a normal outcome,
// not an error. Query failures are retried in place up to the same deadline.
// The only error return is ctx ending, which means the caller abandoned the
// pass.
func Poll(ctx context.Context, log logr.Logger, q StatusQuerier, opts PollOptions) (Result, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = MinInterval
	}
	deadline := time.Now().Add(opts.Timeout)

	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		raw, err := q.ExecutionStatus(ctx, opts.Detailed)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			// A single failed query says nothing about the execution.
			lastErr = err
			log.V(1).Info("status query failed; will retry", "error", err.Error())
		} else {
			outcome, token := ClassifyStatus(raw)
			switch outcome {
			case OutcomeSucceeded, OutcomeFailed:
				return Result{Outcome: outcome, Summary: token}, nil
			}
		}

		if !time.Now().Before(deadline) {
			summary := "execution did not reach a terminal status before the deadline"
			if lastErr != nil {
				summary = fmt.Sprintf("%s; last status query error: %v", summary, lastErr)
			}
			return Result{Outcome: OutcomeTimedOut, Summary: summary}, nil
		}

		wait := interval
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}
}
