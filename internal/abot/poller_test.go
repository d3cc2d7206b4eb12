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
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// scriptedQuerier returns canned responses in order, repeating the last one.
type scriptedQuerier struct {
	responses []json.RawMessage
	errs      []error
	calls     int
}

func (s *scriptedQuerier) ExecutionStatus(ctx context.Context, detailed bool) (json.RawMessage, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

var _ = Describe("Poll", func() {
	var log logr.Logger

	BeforeEach(func() {
		log = logr.Discard()
	})

	It("returns Succeeded once the classifier reports success", func() {
		q := &scriptedQuerier{responses: []json.RawMessage{
			[]byte(`{}`),
			[]byte(`{"state":"executing"}`),
			[]byte(`{"overallStatus":"PASSED"}`),
		}}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeSucceeded))
		Expect(result.Summary).To(Equal("PASSED"))
		Expect(q.calls).To(Equal(3))
	})

	It("returns Failed for a failed-synonym status", func() {
		q := &scriptedQuerier{responses: []json.RawMessage{
			[]byte(`{"state":"error"}`),
		}}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeFailed))
	})

	It("resolves a zero timeout to TimedOut at the first still-running check", func() {
		q := &scriptedQuerier{responses: []json.RawMessage{
			[]byte(`{}`),
		}}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: time.Millisecond,
			Timeout:  0,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeTimedOut))
		Expect(q.calls).To(Equal(1))
	})

	It("still returns a terminal result at the first check even with a zero timeout", func() {
		q := &scriptedQuerier{responses: []json.RawMessage{
			[]byte(`{"overallStatus":"passed"}`),
		}}
		result, err := Poll(context.Background(), log, q, PollOptions{Timeout: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeSucceeded))
	})

	It("retries query failures in place up to the deadline", func() {
		queryErr := &StatusQueryError{requestError{Op: "execution_status", StatusCode: 500}}
		q := &scriptedQuerier{
			responses: []json.RawMessage{nil, []byte(`{"state":"passed"}`)},
			errs:      []error{queryErr},
		}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: time.Millisecond,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeSucceeded))
		Expect(q.calls).To(Equal(2))
	})

	It("reports the last query error in the timeout summary", func() {
		queryErr := &StatusQueryError{requestError{Op: "execution_status", StatusCode: 502}}
		q := &scriptedQuerier{
			responses: []json.RawMessage{nil},
			errs:      []error{queryErr},
		}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: time.Millisecond,
			Timeout:  0,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeTimedOut))
		Expect(result.Summary).To(ContainSubstring("unexpected status 502"))
	})

	It("returns the context error when the pass is abandoned", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		q := &scriptedQuerier{responses: []json.RawMessage{[]byte(`{}`)}}
		_, err := Poll(ctx, log, q, PollOptions{Interval: time.Millisecond, Timeout: time.Second})
		Expect(err).To(MatchError(context.Canceled))
	})

	It("floors a non-positive interval instead of busy-looping", func() {
		q := &scriptedQuerier{responses: []json.RawMessage{
			[]byte(`{"overallStatus":"passed"}`),
		}}
		result, err := Poll(context.Background(), log, q, PollOptions{
			Interval: -5 * time.Second,
			Timeout:  time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Outcome).To(Equal(OutcomeSucceeded))
		Expect(q.calls).To(Equal(1))
	})
})
