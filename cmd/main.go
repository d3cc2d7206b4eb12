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

package main

import (
	"flag"
	"os"
	"time"

	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	// to ensure that exec-entrypoint and run can make use of them.
	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/klog/v2"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	abotv1alpha1 "github.com/capg/abot-kubernetes-operator/api/v1alpha1"
	"github.com/capg/abot-kubernetes-operator/internal/controller"
	"github.com/capg/abot-kubernetes-operator/version"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(abotv1alpha1.AddToScheme(scheme))
}

func main() {
	var (
		metricsAddr          string
		probeAddr            string
		enableLeaderElection bool
		secureMetrics        bool

		leaderElectionLeaseDuration time.Duration
		leaderElectionRenewDeadline time.Duration
		leaderElectionRetryPeriod   time.Duration
		kubeAPITimeout              time.Duration
	)

	flag.StringVar(&metricsAddr, "metrics-bind-address", "0", "The address the metric endpoint binds to. "+
		"Use :8443 for HTTPS or :8080 for HTTP, or leave as 0 to disable the metrics service.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	flag.BoolVar(&secureMetrics, "metrics-secure", true,
		"If set, the metrics endpoint is served securely via HTTPS. Use --metrics-secure=false to use HTTP instead.")
	flag.DurationVar(&leaderElectionLeaseDuration, "leader-election-lease-duration", 60*time.Second,
		"Duration that non-leader candidates will wait to force acquire leadership. "+
			"Can also be set via LEADER_ELECTION_LEASE_DURATION environment variable.")
	flag.DurationVar(&leaderElectionRenewDeadline, "leader-election-renew-deadline", 45*time.Second,
		"Duration the leader will retry refreshing leadership before giving up. "+
			"Can also be set via LEADER_ELECTION_RENEW_DEADLINE environment variable.")
	flag.DurationVar(&leaderElectionRetryPeriod, "leader-election-retry-period", 10*time.Second,
		"Duration the LeaderElector clients should wait between tries of actions. "+
			"Can also be set via LEADER_ELECTION_RETRY_PERIOD environment variable.")
	flag.DurationVar(&kubeAPITimeout, "kube-api-timeout", 30*time.Second,
		"Timeout for requests to the Kubernetes API server. "+
			"Can also be set via KUBE_API_TIMEOUT environment variable.")

	// Configure Zap-based logging for klog/v2 and for the controller manager.
	// Write to stdout by default.
	opts := zap.Options{
		DestWriter: os.Stdout,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()
	logger := zap.New(zap.UseFlagOptions(&opts))
	klog.SetLogger(logger)
	ctrllog.SetLogger(logger)

	setupLog.Info("Abot Test Suite Operator Manager",
		"version", version.Version,
	)

	// Override leader election timeouts from environment variables if set
	if s, ok := os.LookupEnv("LEADER_ELECTION_LEASE_DURATION"); ok {
		if d, err := time.ParseDuration(s); err == nil {
			leaderElectionLeaseDuration = d
		}
	}
	if s, ok := os.LookupEnv("LEADER_ELECTION_RENEW_DEADLINE"); ok {
		if d, err := time.ParseDuration(s); err == nil {
			leaderElectionRenewDeadline = d
		}
	}
	if s, ok := os.LookupEnv("LEADER_ELECTION_RETRY_PERIOD"); ok {
		if d, err := time.ParseDuration(s); err == nil {
			leaderElectionRetryPeriod = d
		}
	}
	if s, ok := os.LookupEnv("KUBE_API_TIMEOUT"); ok {
		if d, err := time.ParseDuration(s); err == nil {
			kubeAPITimeout = d
		}
	}

	// Configure REST client with custom timeout
	restConfig := ctrl.GetConfigOrDie()
	restConfig.Timeout = kubeAPITimeout

	setupLog.Info("Configured Kubernetes API client",
		"timeout", kubeAPITimeout,
	)

	if enableLeaderElection {
		setupLog.Info("Configured leader election",
			"leaseDuration", leaderElectionLeaseDuration,
			"renewDeadline", leaderElectionRenewDeadline,
			"retryPeriod", leaderElectionRetryPeriod,
		)
	}

	mgr, err := ctrl.NewManager(restConfig, ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress:   metricsAddr,
			SecureServing: secureMetrics,
		},
		HealthProbeBindAddress:        probeAddr,
		LeaderElection:                enableLeaderElection,
		LeaderElectionID:              "operator.abot.capg.io",
		LeaseDuration:                 &leaderElectionLeaseDuration,
		RenewDeadline:                 &leaderElectionRenewDeadline,
		RetryPeriod:                   &leaderElectionRetryPeriod,
		LeaderElectionReleaseOnCancel: true,
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	if err = (&controller.AbotTestSuiteReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: mgr.GetEventRecorderFor("abottestsuite-controller"),
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "AbotTestSuite")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
