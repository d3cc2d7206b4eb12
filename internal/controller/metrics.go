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
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	abotv1alpha1 "github.com/capg/abot-kubernetes-operator/api/v1alpha1"
)

var (
	numSuites = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "abot_test_suites_active",
		Help: "Number of AbotTestSuite resources currently tracked by the operator",
	})

	numSuitesFailing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "abot_test_suites_failing",
			Help: "Number of AbotTestSuite resources whose last run ended in a non-Succeeded terminal phase",
		},
		[]string{"namespace", "name"},
	)
)

func init() {
	// Register custom metrics with the global prometheus registry
	metrics.Registry.MustRegister(numSuites, numSuitesFailing)
}

// newSuiteCallback is called when an AbotTestSuite object is created.
func newSuiteCallback(obj any) {
	numSuites.Inc()
}

// updateSuiteCallback is called when an AbotTestSuite object is updated.
func updateSuiteCallback(oldObj, newObj any) {
	newSuite, ok := newObj.(*abotv1alpha1.AbotTestSuite)
	if !ok {
		return
	}

	labels := prometheus.Labels{"namespace": newSuite.Namespace, "name": newSuite.Name}
	switch newSuite.Status.SuitePhase {
	case abotv1alpha1.SuiteFailed, abotv1alpha1.SuiteTimedOut, abotv1alpha1.SuiteError:
		numSuitesFailing.With(labels).Set(1)
	case abotv1alpha1.SuiteSucceeded:
		numSuitesFailing.With(labels).Set(0)
	}
}

// deleteSuiteCallback is called when an AbotTestSuite object is deleted.
func deleteSuiteCallback(oldObj any) {
	numSuites.Dec()
	oldSuite, ok := oldObj.(*abotv1alpha1.AbotTestSuite)
	if !ok {
		return
	}
	if oldSuite.Status.SuitePhase != "" {
		numSuitesFailing.With(prometheus.Labels{"namespace": oldSuite.Namespace, "name": oldSuite.Name}).Set(0)
	}
}
