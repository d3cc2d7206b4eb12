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
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func loginHandler(t *testing.T, token string, next http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/abot/api/v5/login" {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "qa@example.com", body["email"])
			assert.Equal(t, "hunter2", body["password"])
			_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
			return
		}
		next(w, r)
	}
}

func TestLoginStoresBearerToken(t *testing.T) {
	var seenAuth string
	srv := newTestServer(t, loginHandler(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	_, err = c.ExecutionStatus(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", seenAuth)
}

func TestLoginRejected(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	_, err := Login(context.Background(), srv.URL, "qa@example.com", "wrong")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.False(t, IsTransient(err))
}

func TestLoginMissingToken(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	// a tokenless 2xx is a rejection, not a flake; retrying it forever would
	// keep the suite from ever reaching a terminal phase
	assert.False(t, IsTransient(err))
}

func TestLoginUndecodableBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>login page</html>`))
	})

	_, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, IsTransient(err))
}

func TestLoginNetworkFailureIsTransient(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.True(t, IsTransient(err))
}

func TestUpdateConfigBodyShape(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/abot/api/v5/update_config_properties", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured))
		_, _ = w.Write([]byte(`{}`))
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	err = c.UpdateConfig(context.Background(), ConfigUpdate{
		Filename: "abot.properties",
		Update:   map[string]string{"ABOT.TESTBED": "testbed-5g.yaml"},
		Comment:  []string{"ABOT.SUTVARS"},
	})
	require.NoError(t, err)

	assert.Equal(t, "abot.properties", captured["filename"])
	data, ok := captured["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"ABOT.TESTBED": "testbed-5g.yaml"}, data["update"])
	assert.Equal(t, []any{"ABOT.SUTVARS"}, data["comment"])
	// absent lists are sent as empty, not null
	assert.Equal(t, []any{}, data["uncomment"])
}

func TestUpdateConfigRejected(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such file", http.StatusBadRequest)
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	err = c.UpdateConfig(context.Background(), ConfigUpdate{Filename: "missing.properties"})
	var cfgErr *ConfigUpdateError
	require.ErrorAs(t, err, &cfgErr)
	assert.False(t, IsTransient(err))
}

func TestExecutePicksUpRunIdentifier(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/abot/api/v5/feature_files/execute", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "5gs-initial-registration", body["params"])
		assert.Equal(t, "build-42", body["build"])
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "exec-9"})
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	exec, err := c.Execute(context.Background(), "5gs-initial-registration", "build-42")
	require.NoError(t, err)
	assert.Equal(t, "exec-9", exec.ID)
}

func TestExecuteToleratesIdlessResponse(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"executing":true}`))
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	exec, err := c.Execute(context.Background(), "tag", "")
	require.NoError(t, err)
	assert.Empty(t, exec.ID)
}

func TestExecuteRejected(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown tag", http.StatusUnprocessableEntity)
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), "bogus", "")
	var trigErr *TriggerError
	require.ErrorAs(t, err, &trigErr)
}

func TestExecutionStatusSelectsEndpoint(t *testing.T) {
	var paths []string
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"state":"executing"}`))
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	_, err = c.ExecutionStatus(context.Background(), false)
	require.NoError(t, err)
	_, err = c.ExecutionStatus(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/abot/api/v5/execution_status",
		"/abot/api/v5/detail_execution_status",
	}, paths)
}

func TestExecutionStatusServerErrorIsTransient(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	_, err = c.ExecutionStatus(context.Background(), false)
	var statusErr *StatusQueryError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, IsTransient(err))
}

func TestLatestArtifactName(t *testing.T) {
	srv := newTestServer(t, loginHandler(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/abot/api/v5/latest_artifact_name", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"latest_artifact_name": "TestExecution-2024-06-01"})
	}))

	c, err := Login(context.Background(), srv.URL, "qa@example.com", "hunter2")
	require.NoError(t, err)

	name, err := c.LatestArtifactName(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "TestExecution-2024-06-01", name)
}

func TestIsTransientUnknownError(t *testing.T) {
	assert.False(t, IsTransient(errors.New("some other error")))
	assert.False(t, IsTransient(nil))
}
