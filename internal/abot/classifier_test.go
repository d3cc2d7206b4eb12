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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClassifyStatus", func() {
	DescribeTable("mapping raw status bodies onto outcomes",
		func(raw string, expected Outcome) {
			outcome, _ := ClassifyStatus([]byte(raw))
			Expect(outcome).To(Equal(expected))
		},
		Entry("overallStatus PASSED", `{"overallStatus":"PASSED"}`, OutcomeSucceeded),
		Entry("overallStatus succeeded", `{"overallStatus":"succeeded"}`, OutcomeSucceeded),
		Entry("overallStatus Completed", `{"overallStatus":"Completed"}`, OutcomeSucceeded),
		Entry("state complete", `{"state":"complete"}`, OutcomeSucceeded),
		Entry("state error", `{"state":"error"}`, OutcomeFailed),
		Entry("state FAILED", `{"state":"FAILED"}`, OutcomeFailed),
		Entry("overallStatus Terminated", `{"overallStatus":"Terminated"}`, OutcomeFailed),
		Entry("empty object", `{}`, OutcomeRunning),
		Entry("unknown token", `{"state":"executing"}`, OutcomeRunning),
		Entry("unrelated fields only", `{"executing":{"foo":"bar"}}`, OutcomeRunning),
		Entry("unparseable body", `not json at all`, OutcomeRunning),
		Entry("empty body", ``, OutcomeRunning),
		Entry("token with surrounding space", `{"state":" passed "}`, OutcomeSucceeded),
	)

	It("prefers overallStatus over state when both are present", func() {
		outcome, token := ClassifyStatus([]byte(`{"overallStatus":"passed","state":"failed"}`))
		Expect(outcome).To(Equal(OutcomeSucceeded))
		Expect(token).To(Equal("passed"))
	})

	It("returns the raw token alongside the outcome", func() {
		_, token := ClassifyStatus([]byte(`{"overallStatus":"PASSED"}`))
		Expect(token).To(Equal("PASSED"))
	})
})
