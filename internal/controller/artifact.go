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
	"fmt"
	"unicode/utf8"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"

	abotv1alpha1 "github.com/capg/abot-kubernetes-operator/api/v1alpha1"
)

const (
	// summaryKey is the ConfigMap key holding the serialized run summary.
	summaryKey = "summary"

	// maxSummaryBytes caps the serialized summary at 1 MiB. Larger payloads
	// are truncated, not rejected; the artifact is a convenience, and the
	// external store must not receive unbounded writes.
	maxSummaryBytes = 1 << 20
)

// runSummary is the published shape of a finished suite.
type runSummary struct {
	SuitePhase abotv1alpha1.SuitePhase   `json:"suitePhase"`
	Tests      []abotv1alpha1.TestResult `json:"tests"`
}

// publishSummary upserts the run summary into the ConfigMap named by
// .spec.artifacts.summaryTarget, owned by the suite so it is garbage
// collected with it.
func publishSummary(ctx context.Context, c client.Client, scheme *runtime.Scheme, suite *abotv1alpha1.AbotTestSuite) error {
	target := suite.Spec.Artifacts.SummaryTarget
	payload, err := json.Marshal(runSummary{
		SuitePhase: suite.Status.SuitePhase,
		Tests:      suite.Status.Tests,
	})
	if err != nil {
		return fmt.Errorf("serializing run summary: %w", err)
	}
	if len(payload) > maxSummaryBytes {
		payload = payload[:maxSummaryBytes]
		// ConfigMap data values must be valid UTF-8; back off any rune the
		// cut split in half.
		for len(payload) > 0 {
			r, size := utf8.DecodeLastRune(payload)
			if r != utf8.RuneError || size != 1 {
				break
			}
			payload = payload[:len(payload)-1]
		}
	}

	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      target,
			Namespace: suite.Namespace,
		},
	}
	_, err = controllerutil.CreateOrUpdate(ctx, c, cm, func() error {
		if cm.Data == nil {
			cm.Data = map[string]string{}
		}
		cm.Data[summaryKey] = string(payload)
		return controllerutil.SetControllerReference(suite, cm, scheme)
	})
	if err != nil {
		return fmt.Errorf("upserting summary ConfigMap %q: %w", target, err)
	}
	return nil
}
