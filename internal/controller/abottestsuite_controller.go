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

package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/operator-framework/operator-lib/handler"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"

	abotv1alpha1 "github.com/capg/abot-kubernetes-operator/api/v1alpha1"
	"github.com/capg/abot-kubernetes-operator/internal/abot"
)

const defaultMaxConcurrentReconciles = 10

// errSuiteGone signals that the suite was deleted mid-pass; the pass is
// abandoned without further remote calls or status writes.
var errSuiteGone = errors.New("suite deleted during reconciliation")

// StallError represents a problem that makes a suite spec unprocessable while
// otherwise being valid, for example a reference to a secret that does not
// exist. No retry will help without a spec change.
type StallError struct {
	error
}

func newStallErrorf(format string, args ...interface{}) error {
	return StallError{fmt.Errorf(format, args...)}
}

func isStalledError(e error) bool {
	var s StallError
	return errors.As(e, &s)
}

// Session is the part of the Abot client the reconciler drives. One session
// is established per reconciliation pass and discarded with it.
type Session interface {
	UpdateConfig(ctx context.Context, cfg abot.ConfigUpdate) error
	FeatureTags(ctx context.Context) (json.RawMessage, error)
	Execute(ctx context.Context, params, build string) (abot.Execution, error)
	ExecutionStatus(ctx context.Context, detailed bool) (json.RawMessage, error)
	LatestArtifactName(ctx context.Context) (string, error)
}

// SessionFactory authenticates against an Abot endpoint and returns a
// session. It is a field on the reconciler so tests can substitute a fake.
type SessionFactory func(ctx context.Context, endpoint, email, password string) (Session, error)

func defaultSessionFactory(ctx context.Context, endpoint, email, password string) (Session, error) {
	return abot.Login(ctx, endpoint, email, password)
}

// AbotTestSuiteReconciler reconciles an AbotTestSuite object
type AbotTestSuiteReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Recorder record.EventRecorder

	// NewSession defaults to logging in against the real service.
	NewSession SessionFactory
}

//+kubebuilder:rbac:groups=abot.capg.io,resources=abottestsuites,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=abot.capg.io,resources=abottestsuites/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=abot.capg.io,resources=abottestsuites/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch
//+kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch;create;update;patch
//+kubebuilder:rbac:groups="",resources=events,verbs=create;patch

// Reconcile drives one AbotTestSuite through the phase sequence
// Pending, Authenticating, ConfigUpdating, Executing/Polling per test, and a
// terminal phase. The pass is resumable: tests already recorded as terminal
// in status are never re-triggered.
func (r *AbotTestSuiteReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	l := log.FromContext(ctx)

	suite := &abotv1alpha1.AbotTestSuite{}
	if err := r.Get(ctx, req.NamespacedName, suite); err != nil {
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	if suite.GetDeletionTimestamp() != nil {
		// Remote executions are fire-and-forget; nothing to clean up.
		return ctrl.Result{}, nil
	}

	// A terminal result stands until the spec changes; a spec change starts a
	// fresh run with fresh per-test history.
	if suite.Status.ObservedGeneration == suite.Generation && suite.Status.SuitePhase.IsTerminal() {
		l.V(1).Info("suite already in terminal phase", "phase", suite.Status.SuitePhase)
		return ctrl.Result{}, nil
	}
	if suite.Status.ObservedGeneration != 0 && suite.Status.ObservedGeneration != suite.Generation {
		l.Info("spec changed; starting a new run", "observedGeneration", suite.Status.ObservedGeneration)
		suite.Status = abotv1alpha1.AbotTestSuiteStatus{}
	}
	suite.Status.ObservedGeneration = suite.Generation

	saveStatus := func() error {
		if err := r.Status().Update(ctx, suite); err != nil {
			if apierrors.IsNotFound(err) {
				l.Info("suite deleted during reconciliation; abandoning pass")
				return errSuiteGone
			}
			l.Error(err, "unable to save suite status")
			return err
		}
		return nil
	}
	// done converts a saveStatus error into the reconcile return, swallowing
	// the deleted-mid-pass case.
	done := func(err error) (ctrl.Result, error) {
		if errors.Is(err, errSuiteGone) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if err := validateSpec(suite); err != nil {
		suite.Status.SetPhase(abotv1alpha1.SuiteError, err.Error())
		suite.Status.MarkStalledCondition(abotv1alpha1.StalledSpecInvalidReason, err.Error())
		r.Recorder.Event(suite, corev1.EventTypeWarning, "SpecInvalid", err.Error())
		return done(saveStatus())
	}

	if suite.Status.SuitePhase == "" {
		suite.Status.SetPhase(abotv1alpha1.SuitePending, "suite accepted")
	}
	suite.Status.MarkReconcilingCondition(abotv1alpha1.ReconcilingProcessingReason, "suite is being processed")

	creds, err := resolveCredentials(ctx, r.Client, suite.Namespace, suite.Spec.CredentialRef)
	if err != nil {
		if isStalledError(err) {
			suite.Status.SetPhase(abotv1alpha1.SuiteError, err.Error())
			suite.Status.MarkStalledCondition(abotv1alpha1.StalledCredentialsUnavailableReason, err.Error())
			r.Recorder.Event(suite, corev1.EventTypeWarning, "CredentialsUnavailable", err.Error())
			return done(saveStatus())
		}
		return ctrl.Result{}, err
	}

	suite.Status.SetPhase(abotv1alpha1.SuiteAuthenticating, fmt.Sprintf("logging in to %s", suite.Spec.Endpoint))
	if err := saveStatus(); err != nil {
		return done(err)
	}

	newSession := r.NewSession
	if newSession == nil {
		newSession = defaultSessionFactory
	}
	session, err := newSession(ctx, suite.Spec.Endpoint, creds.email, creds.password)
	if err != nil {
		if abot.IsTransient(err) {
			suite.Status.Message = fmt.Sprintf("authentication failed, will retry: %v", err)
			if serr := saveStatus(); errors.Is(serr, errSuiteGone) {
				return ctrl.Result{}, nil
			}
			return ctrl.Result{}, err
		}
		msg := fmt.Sprintf("authentication rejected: %v", err)
		suite.Status.SetPhase(abotv1alpha1.SuiteFailed, msg)
		suite.Status.MarkFailedCondition(msg)
		r.Recorder.Event(suite, corev1.EventTypeWarning, "AuthRejected", msg)
		return done(saveStatus())
	}

	if cfg := suite.Spec.ConfigUpdate; cfg != nil {
		suite.Status.SetPhase(abotv1alpha1.SuiteConfigUpdating, fmt.Sprintf("updating config %s", cfg.Filename))
		if err := saveStatus(); err != nil {
			return done(err)
		}
		err := session.UpdateConfig(ctx, abot.ConfigUpdate{
			Filename:  cfg.Filename,
			Update:    cfg.Update,
			Comment:   cfg.Comment,
			Uncomment: cfg.Uncomment,
		})
		if err != nil {
			if abot.IsTransient(err) {
				suite.Status.Message = fmt.Sprintf("config update failed, will retry: %v", err)
				if serr := saveStatus(); errors.Is(serr, errSuiteGone) {
					return ctrl.Result{}, nil
				}
				return ctrl.Result{}, err
			}
			msg := fmt.Sprintf("config update rejected: %v", err)
			suite.Status.SetPhase(abotv1alpha1.SuiteFailed, msg)
			suite.Status.MarkFailedCondition(msg)
			r.Recorder.Event(suite, corev1.EventTypeWarning, "ConfigUpdateRejected", msg)
			return done(saveStatus())
		}
	}

	if suite.Spec.Discovery.ValidateTags {
		// Diagnostic only; a failure here never fails the suite.
		if raw, err := session.FeatureTags(ctx); err != nil {
			l.Info("feature tag listing failed; continuing", "error", err.Error())
		} else {
			l.Info("feature tags available on the service", "tags", string(raw))
		}
	}

	pollOpts := abot.PollOptions{
		Interval: time.Duration(suite.Spec.Polling.IntervalSeconds) * time.Second,
		Timeout:  time.Duration(suite.Spec.Polling.TimeoutSeconds) * time.Second,
		Detailed: suite.Spec.Polling.FetchDetails,
	}

	for _, test := range suite.Spec.Tests {
		if prior := suite.Status.FindTest(test.Name); prior != nil && prior.Phase.IsTerminal() {
			l.V(1).Info("skipping test already in terminal phase", "test", test.Name, "phase", prior.Phase)
			continue
		}
		if err := ctx.Err(); err != nil {
			return ctrl.Result{}, err
		}

		suite.Status.SetPhase(abotv1alpha1.SuiteExecuting, fmt.Sprintf("triggering test %q", test.Name))
		suite.Status.SetTest(abotv1alpha1.TestResult{Name: test.Name, Phase: abotv1alpha1.TestRunning})
		if err := saveStatus(); err != nil {
			return done(err)
		}

		exec, err := session.Execute(ctx, test.Params, test.Build)
		if err != nil {
			// One test failing to trigger does not abort the rest of the suite.
			suite.Status.SetTest(abotv1alpha1.TestResult{
				Name:    test.Name,
				Phase:   abotv1alpha1.TestFailed,
				Summary: fmt.Sprintf("trigger failed: %v", err),
			})
			r.Recorder.Eventf(suite, corev1.EventTypeWarning, "TestTriggerFailed", "test %q: %v", test.Name, err)
			if err := saveStatus(); err != nil {
				return done(err)
			}
			continue
		}
		if exec.ID != "" {
			suite.Status.ExecutionID = exec.ID
		}

		suite.Status.SetPhase(abotv1alpha1.SuitePolling, fmt.Sprintf("awaiting result of test %q", test.Name))
		if err := saveStatus(); err != nil {
			return done(err)
		}

		result, err := abot.Poll(ctx, l, session, pollOpts)
		if err != nil {
			// The pass was abandoned; leave status as it stands.
			return ctrl.Result{}, err
		}
		switch result.Outcome {
		case abot.OutcomeSucceeded:
			suite.Status.SetTest(abotv1alpha1.TestResult{
				Name:    test.Name,
				Phase:   abotv1alpha1.TestSucceeded,
				Summary: result.Summary,
			})
		case abot.OutcomeFailed:
			suite.Status.SetTest(abotv1alpha1.TestResult{
				Name:    test.Name,
				Phase:   abotv1alpha1.TestFailed,
				Summary: result.Summary,
			})
			r.Recorder.Eventf(suite, corev1.EventTypeWarning, "TestFailed", "test %q: %s", test.Name, result.Summary)
		case abot.OutcomeTimedOut:
			// A timeout is a failure at the test level; TimedOut at the suite
			// level is reserved for a run where nothing finished.
			suite.Status.SetTest(abotv1alpha1.TestResult{
				Name:    test.Name,
				Phase:   abotv1alpha1.TestFailed,
				Summary: result.Summary,
			})
			r.Recorder.Eventf(suite, corev1.EventTypeWarning, "TestTimedOut", "test %q: %s", test.Name, result.Summary)
		}
		if err := saveStatus(); err != nil {
			return done(err)
		}
	}

	phase, msg := aggregateSuite(suite.Spec.Tests, &suite.Status)
	suite.Status.SetPhase(phase, msg)
	if phase == abotv1alpha1.SuiteSucceeded {
		suite.Status.MarkReadyCondition()
		r.Recorder.Event(suite, corev1.EventTypeNormal, "SuiteSucceeded", msg)
	} else {
		suite.Status.MarkFailedCondition(msg)
		r.Recorder.Event(suite, corev1.EventTypeWarning, string(phase), msg)
	}

	if name, err := session.LatestArtifactName(ctx); err != nil {
		l.V(1).Info("could not fetch latest artifact name", "error", err.Error())
	} else if name != "" {
		suite.Status.ResultsURL = name
	}

	if suite.Spec.Artifacts.SummaryTarget != "" {
		if err := publishSummary(ctx, r.Client, r.Scheme, suite); err != nil {
			// The artifact is a convenience, not part of the correctness
			// contract.
			l.Error(err, "publishing run summary failed")
			r.Recorder.Event(suite, corev1.EventTypeWarning, "SummaryPublishFailed", err.Error())
		}
	}

	return done(saveStatus())
}

// validateSpec rejects specs that can never be processed: these stall the
// suite rather than requeue it.
func validateSpec(suite *abotv1alpha1.AbotTestSuite) error {
	if suite.Spec.Endpoint == "" {
		return newStallErrorf("spec.endpoint must not be empty")
	}
	if suite.Spec.CredentialRef.Name == "" {
		return newStallErrorf("spec.credentialRef.name must not be empty")
	}
	if len(suite.Spec.Tests) == 0 {
		return newStallErrorf("spec.tests must declare at least one test")
	}
	seen := make(map[string]bool, len(suite.Spec.Tests))
	for i, test := range suite.Spec.Tests {
		if test.Name == "" {
			return newStallErrorf("spec.tests[%d].name must not be empty", i)
		}
		if test.Params == "" {
			return newStallErrorf("spec.tests[%d].params must not be empty", i)
		}
		if seen[test.Name] {
			return newStallErrorf("spec.tests contains duplicate name %q", test.Name)
		}
		seen[test.Name] = true
	}
	return nil
}

// aggregateSuite computes the suite-level terminal phase from the per-test
// phases: Succeeded iff every declared test succeeded; Failed if at least one
// test reached a terminal phase; TimedOut if nothing did.
func aggregateSuite(tests []abotv1alpha1.TestSpec, status *abotv1alpha1.AbotTestSuiteStatus) (abotv1alpha1.SuitePhase, string) {
	var succeeded, terminal int
	for _, test := range tests {
		result := status.FindTest(test.Name)
		if result == nil || !result.Phase.IsTerminal() {
			continue
		}
		terminal++
		if result.Phase == abotv1alpha1.TestSucceeded {
			succeeded++
		}
	}
	total := len(tests)
	switch {
	case total > 0 && succeeded == total:
		return abotv1alpha1.SuiteSucceeded, fmt.Sprintf("all %d tests succeeded", total)
	case terminal > 0:
		return abotv1alpha1.SuiteFailed, fmt.Sprintf("%d of %d tests succeeded", succeeded, total)
	default:
		return abotv1alpha1.SuiteTimedOut, "no test reached a terminal phase"
	}
}

// SetupWithManager sets up the controller with the Manager.
func (r *AbotTestSuiteReconciler) SetupWithManager(mgr ctrl.Manager) error {
	opts := controller.Options{MaxConcurrentReconciles: defaultMaxConcurrentReconciles}
	if s, ok := os.LookupEnv("MAX_CONCURRENT_RECONCILES"); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		opts.MaxConcurrentReconciles = n
	}

	// Track metrics about suites.
	suiteInformer, err := mgr.GetCache().GetInformer(context.Background(), &abotv1alpha1.AbotTestSuite{})
	if err != nil {
		return err
	}
	if _, err := suiteInformer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc:    newSuiteCallback,
		UpdateFunc: updateSuiteCallback,
		DeleteFunc: deleteSuiteCallback,
	}); err != nil {
		return err
	}

	return ctrl.NewControllerManagedBy(mgr).
		Named("abottestsuite-controller").
		Watches(&abotv1alpha1.AbotTestSuite{},
			&handler.InstrumentedEnqueueRequestForObject[client.Object]{},
			builder.WithPredicates(predicate.GenerationChangedPredicate{})).
		WithOptions(opts).
		Complete(r)
}
