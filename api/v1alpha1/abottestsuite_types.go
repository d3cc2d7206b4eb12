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

package v1alpha1

import (
	apimeta "k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// SuitePhase names a state in the suite-level reconciliation state machine.
type SuitePhase string

const (
	SuitePending        SuitePhase = "Pending"
	SuiteAuthenticating SuitePhase = "Authenticating"
	SuiteConfigUpdating SuitePhase = "ConfigUpdating"
	SuiteExecuting      SuitePhase = "Executing"
	SuitePolling        SuitePhase = "Polling"
	SuiteSucceeded      SuitePhase = "Succeeded"
	SuiteFailed         SuitePhase = "Failed"
	SuiteTimedOut       SuitePhase = "TimedOut"
	SuiteError          SuitePhase = "Error"
)

// suitePhaseOrder fixes the forward ordering of non-terminal phases.
// Executing and Polling share a rank: the suite alternates between them while
// iterating declared tests. Terminal phases rank above every non-terminal
// phase so that a recorded result is never downgraded by a later pass.
var suitePhaseOrder = map[SuitePhase]int{
	SuitePending:        0,
	SuiteAuthenticating: 1,
	SuiteConfigUpdating: 2,
	SuiteExecuting:      3,
	SuitePolling:        3,
	SuiteSucceeded:      4,
	SuiteFailed:         4,
	SuiteTimedOut:       4,
	SuiteError:          4,
}

// IsTerminal reports whether no further automatic transition occurs from p.
func (p SuitePhase) IsTerminal() bool {
	switch p {
	case SuiteSucceeded, SuiteFailed, SuiteTimedOut, SuiteError:
		return true
	}
	return false
}

// Before reports whether p precedes q in the phase ordering.
func (p SuitePhase) Before(q SuitePhase) bool {
	return suitePhaseOrder[p] < suitePhaseOrder[q]
}

// TestPhase names a state of one declared test.
type TestPhase string

const (
	TestPending   TestPhase = "Pending"
	TestRunning   TestPhase = "Running"
	TestSucceeded TestPhase = "Succeeded"
	TestFailed    TestPhase = "Failed"
)

// IsTerminal reports whether the test has finished, one way or the other.
func (p TestPhase) IsTerminal() bool {
	return p == TestSucceeded || p == TestFailed
}

// SecretReference refers to a Secret in the suite's namespace holding Abot
// login credentials under the keys `email` and `password`.
type SecretReference struct {
	Name string `json:"name"`
}

// ConfigUpdateSpec describes an update_config_properties call made before any
// test is executed.
type ConfigUpdateSpec struct {
	// Filename is the Abot properties file to modify.
	Filename string `json:"filename"`
	// Update maps property keys to the values they should take.
	// +optional
	Update map[string]string `json:"update,omitempty"`
	// Comment lists property keys to comment out.
	// +optional
	Comment []string `json:"comment,omitempty"`
	// Uncomment lists property keys to uncomment.
	// +optional
	Uncomment []string `json:"uncomment,omitempty"`
}

// DiscoverySpec controls pre-execution diagnostics.
type DiscoverySpec struct {
	// ValidateTags fetches the feature tags known to the Abot instance and
	// logs them before executing. Failures are logged and ignored.
	// +optional
	ValidateTags bool `json:"validateTags,omitempty"`
}

// TestSpec declares one test to execute.
type TestSpec struct {
	// Name identifies the test within the suite; it keys the per-test status.
	Name string `json:"name"`
	// Params selects the feature(s) to run, e.g. an Abot feature tag.
	Params string `json:"params"`
	// Build labels the build under test.
	// +optional
	Build string `json:"build,omitempty"`
}

// PollingSpec bounds the wait for each test's execution.
type PollingSpec struct {
	// IntervalSeconds is the time between successive status queries.
	// Values below 1 are floored to 1.
	// +optional
	IntervalSeconds int64 `json:"intervalSeconds,omitempty"`
	// TimeoutSeconds bounds the total wait for one test, measured from the
	// first status query after that test's trigger.
	// +optional
	TimeoutSeconds int64 `json:"timeoutSeconds,omitempty"`
	// FetchDetails queries the detailed execution status endpoint instead of
	// the basic one.
	// +optional
	FetchDetails bool `json:"fetchDetails,omitempty"`
}

// ArtifactsSpec controls publication of the run summary.
type ArtifactsSpec struct {
	// SummaryTarget names a ConfigMap in the suite's namespace to receive the
	// serialized run summary. Empty disables publication.
	// +optional
	SummaryTarget string `json:"summaryTarget,omitempty"`
}

// AbotTestSuiteSpec defines the desired state of AbotTestSuite
type AbotTestSuiteSpec struct {
	// Endpoint is the base URL of the Abot service, e.g. https://abot.example.com.
	Endpoint string `json:"endpoint"`

	// CredentialRef names the Secret holding login credentials.
	CredentialRef SecretReference `json:"credentialRef"`

	// ConfigUpdate, if present, is applied once after authentication and
	// before any test executes.
	// +optional
	ConfigUpdate *ConfigUpdateSpec `json:"configUpdate,omitempty"`

	// +optional
	Discovery DiscoverySpec `json:"discovery,omitempty"`

	// Tests are executed sequentially, in declaration order.
	// +kubebuilder:validation:MinItems=1
	Tests []TestSpec `json:"tests"`

	// +optional
	Polling PollingSpec `json:"polling,omitempty"`

	// +optional
	Artifacts ArtifactsSpec `json:"artifacts,omitempty"`
}

// TestResult records the observed state of one declared test.
type TestResult struct {
	Name string `json:"name"`
	// +optional
	Phase TestPhase `json:"phase,omitempty"`
	// Summary carries the classified remote status for a finished test, or
	// the error that finished it.
	// +optional
	Summary string `json:"summary,omitempty"`
}

// AbotTestSuiteStatus defines the observed state of AbotTestSuite
type AbotTestSuiteStatus struct {
	// +optional
	SuitePhase SuitePhase `json:"suitePhase,omitempty"`

	// Message describes the latest action taken or failure observed.
	// +optional
	Message string `json:"message,omitempty"`

	// Tests mirrors .spec.tests by name, appended or replaced, never duplicated.
	// +optional
	Tests []TestResult `json:"tests,omitempty"`

	// +optional
	LastTransitionTime metav1.Time `json:"lastTransitionTime,omitempty"`

	// ExecutionID is the identifier the Abot service returned for the most
	// recently triggered execution, when it returned one.
	// +optional
	ExecutionID string `json:"executionId,omitempty"`

	// ResultsURL points at the latest Abot artifact for the run, when the
	// service reported one.
	// +optional
	ResultsURL string `json:"resultsUrl,omitempty"`

	// ObservedGeneration records the value of .metadata.generation at the
	// point the controller last processed this object.
	// +optional
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// +patchMergeKey=type
	// +patchStrategy=merge
	// +listType=map
	// +listMapKey=type
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`
}

// The conditions implement the "ready protocol":
//   - while the suite is being processed, `Reconciling` is True
//   - when the suite reaches Succeeded, `Ready` is True
//   - when the suite reaches Failed/TimedOut/Error, `Ready` is False
//   - when the spec cannot be processed at all, `Stalled` is True

const (
	ReadyCondition       = "Ready"
	StalledCondition     = "Stalled"
	ReconcilingCondition = "Reconciling"

	NotReadyInProgressReason = "NotReadyInProgress"
	NotReadyStalledReason    = "NotReadyStalled"
	NotReadyFailedReason     = "SuiteFailed"

	ReconcilingProcessingReason = "SuiteProcessing"

	StalledSpecInvalidReason            = "SpecInvalid"
	StalledCredentialsUnavailableReason = "CredentialsUnavailable"

	ReadyCompletedReason = "SuiteCompleted"
)

// MarkReconcilingCondition arranges the conditions to indicate the suite is
// being processed.
func (s *AbotTestSuiteStatus) MarkReconcilingCondition(reason, msg string) {
	conditions := &s.Conditions
	apimeta.RemoveStatusCondition(conditions, StalledCondition)
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    ReadyCondition,
		Status:  "False",
		Reason:  NotReadyInProgressReason,
		Message: "reconciliation is in progress",
	})
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    ReconcilingCondition,
		Status:  "True",
		Reason:  reason,
		Message: msg,
	})
}

// MarkStalledCondition arranges the conditions to indicate the suite cannot be
// processed as specified and will not be retried until the spec changes.
func (s *AbotTestSuiteStatus) MarkStalledCondition(reason, msg string) {
	conditions := &s.Conditions
	apimeta.RemoveStatusCondition(conditions, ReconcilingCondition)
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    ReadyCondition,
		Status:  "False",
		Reason:  NotReadyStalledReason,
		Message: "reconciliation is stalled",
	})
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    StalledCondition,
		Status:  "True",
		Reason:  reason,
		Message: msg,
	})
}

// MarkReadyCondition arranges the conditions to indicate the suite ran to
// completion and every test succeeded.
func (s *AbotTestSuiteStatus) MarkReadyCondition() {
	conditions := &s.Conditions
	apimeta.RemoveStatusCondition(conditions, ReconcilingCondition)
	apimeta.RemoveStatusCondition(conditions, StalledCondition)
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    ReadyCondition,
		Status:  "True",
		Reason:  ReadyCompletedReason,
		Message: "all tests in the suite succeeded",
	})
}

// MarkFailedCondition arranges the conditions to indicate the suite reached a
// terminal phase other than Succeeded.
func (s *AbotTestSuiteStatus) MarkFailedCondition(msg string) {
	conditions := &s.Conditions
	apimeta.RemoveStatusCondition(conditions, ReconcilingCondition)
	apimeta.SetStatusCondition(conditions, metav1.Condition{
		Type:    ReadyCondition,
		Status:  "False",
		Reason:  NotReadyFailedReason,
		Message: msg,
	})
}

// FindTest returns the recorded result for the named test, or nil.
func (s *AbotTestSuiteStatus) FindTest(name string) *TestResult {
	for i := range s.Tests {
		if s.Tests[i].Name == name {
			return &s.Tests[i]
		}
	}
	return nil
}

// SetTest appends or replaces the result for result.Name. A test already in a
// terminal phase is never downgraded.
func (s *AbotTestSuiteStatus) SetTest(result TestResult) {
	for i := range s.Tests {
		if s.Tests[i].Name != result.Name {
			continue
		}
		if s.Tests[i].Phase.IsTerminal() && !result.Phase.IsTerminal() {
			return
		}
		s.Tests[i] = result
		return
	}
	s.Tests = append(s.Tests, result)
}

// SetPhase advances the suite phase and records message and transition time.
// A backwards transition is ignored except onto Error, which is reachable
// from anywhere. While the suite is live, Message tracks the latest action
// even when the phase write itself is suppressed, so a resumed pass that
// re-authenticates behind an already-recorded Polling phase still says so.
func (s *AbotTestSuiteStatus) SetPhase(phase SuitePhase, msg string) {
	if phase != SuiteError && phase.Before(s.SuitePhase) {
		if !s.SuitePhase.IsTerminal() {
			s.Message = msg
		}
		return
	}
	if s.SuitePhase != phase {
		s.LastTransitionTime = metav1.Now()
	}
	s.SuitePhase = phase
	s.Message = msg
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.suitePhase`
//+kubebuilder:printcolumn:name="Message",type=string,JSONPath=`.status.message`
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"

// AbotTestSuite is the Schema for the abottestsuites API
type AbotTestSuite struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   AbotTestSuiteSpec   `json:"spec,omitempty"`
	Status AbotTestSuiteStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// AbotTestSuiteList contains a list of AbotTestSuite
type AbotTestSuiteList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []AbotTestSuite `json:"items"`
}

func init() {
	SchemeBuilder.Register(&AbotTestSuite{}, &AbotTestSuiteList{})
}
