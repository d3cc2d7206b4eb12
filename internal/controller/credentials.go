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
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	abotv1alpha1 "github.com/capg/abot-kubernetes-operator/api/v1alpha1"
)

// credentials is an Abot login pair read from a Secret.
type credentials struct {
	email    string
	password string
}

// resolveCredentials maps a credential reference to a login pair. A missing
// secret or missing keys is a stall: no retry will help without a spec or
// secret change. Any other read failure is returned as-is so the pass can be
// retried.
func resolveCredentials(ctx context.Context, reader client.Reader, namespace string, ref abotv1alpha1.SecretReference) (credentials, error) {
	secret := &corev1.Secret{}
	key := types.NamespacedName{Namespace: namespace, Name: ref.Name}
	if err := reader.Get(ctx, key, secret); err != nil {
		if apierrors.IsNotFound(err) {
			return credentials{}, newStallErrorf("credential secret %q not found", ref.Name)
		}
		return credentials{}, fmt.Errorf("reading credential secret %q: %w", ref.Name, err)
	}

	creds := credentials{}
	for _, field := range []struct {
		key  string
		dest *string
	}{
		{"email", &creds.email},
		{"password", &creds.password},
	} {
		value, ok := secret.Data[field.key]
		if !ok || len(value) == 0 {
			return credentials{}, newStallErrorf("credential secret %q malformed: missing key %q", ref.Name, field.key)
		}
		*field.dest = string(value)
	}
	return creds, nil
}
