// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"os"

	"interactive-toolkit/pkg/config"
	"interactive-toolkit/pkg/forward"
	"interactive-toolkit/pkg/history"
	"interactive-toolkit/pkg/imagebuilder"
	"interactive-toolkit/pkg/logging"
	"interactive-toolkit/pkg/scheduler"
	"interactive-toolkit/pkg/session"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	modeName     string
	port         int
	buildContext string
	imageRepo    string
	platform     string
)

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringVarP(&modeName, "mode", "m", "shell", "How to expose the job once it is running: shell, port, or jupyter.")
	launchCmd.Flags().IntVarP(&port, "port", "p", 0, "Container port to expose locally. Required with --mode=port.")
	launchCmd.Flags().StringVarP(&buildContext, "build-context", "c", "", "Path to a directory to layer onto IMAGE before launching. Requires --image-repo.")
	launchCmd.Flags().StringVar(&imageRepo, "image-repo", "", "Registry repository that receives images built from --build-context.")
	launchCmd.Flags().StringVarP(&platform, "platform", "f", string(imagebuilder.LinuxAMD64), "Target platform for the image build (e.g., 'linux/amd64'). Used with --build-context.")

	// Everything after the positional arguments belongs to the submit
	// command, so flag parsing stops at the first positional.
	launchCmd.Flags().SetInterspersed(false)
}

var launchCmd = &cobra.Command{
	Use:   "launch JOB_NAME IMAGE [SUBMIT_ARGS...]",
	Short: "Launches an interactive job and keeps it alive until Ctrl-C.",
	Long: `The 'launch' command submits an interactive job to the cluster scheduler,
waits for it to reach Running, and exposes it in the requested mode: the
command to attach a shell (shell), a forwarded local port (port), or the
URL of the Jupyter server discovered in the job's logs (jupyter).

The job exists only as long as the launch process: ending the session,
with Ctrl-C or otherwise, deletes the job. Arguments after JOB_NAME and
IMAGE are passed to the scheduler's submit command unchanged. With
--build-context, IMAGE is treated as a base image, the context directory
is layered onto it, and the result is pushed to --image-repo before the
job is submitted.`,
	Args:         cobra.MinimumNArgs(2),
	Run:          runLaunchCmd,
	SilenceUsage: true,
}

func runLaunchCmd(cmd *cobra.Command, args []string) {
	jobName, image := args[0], args[1]
	extraArgs := args[2:]

	mode, err := session.ParseMode(modeName)
	if err != nil {
		logging.Fatal("%v", err)
	}
	cfg, err := config.Load(afero.NewOsFs(), configFile)
	if err != nil {
		logging.Fatal("Failed to load config: %v", err)
	}

	if buildContext != "" {
		if imageRepo == "" {
			logging.Fatal("--image-repo is required when --build-context is provided.")
		}
		built, err := imagebuilder.BuildInteractiveImage(imageRepo, image, buildContext, platform)
		if err != nil {
			logging.Fatal("Image build failed: %v", err)
		}
		image = built
	} else if imageRepo != "" {
		logging.Fatal("--image-repo requires --build-context.")
	}

	sched := scheduler.NewClient(cfg.SchedulerBinary)
	sched.SubmitArgs = cfg.SubmitArgs

	opts := session.Options{
		JobName:          jobName,
		Image:            image,
		ExtraArgs:        extraArgs,
		Mode:             mode,
		Port:             port,
		Scheduler:        sched,
		Forwarder:        session.NewPortForwarder(forward.NewForwarder(cfg.ForwarderBinary)),
		PollInterval:     cfg.PollInterval(),
		EndpointAttempts: cfg.EndpointAttempts,
		EndpointDelay:    cfg.EndpointDelay(),
	}

	var store *history.Store
	if store, err = history.Open(cfg.HistoryPath); err != nil {
		logging.Debug("Launch history disabled: %v", err)
		store = nil
	} else {
		opts.Recorder = store
	}

	sess, err := session.New(opts)
	if err != nil {
		logging.Fatal("%v", err)
	}

	ctx, stop := session.NotifyContext(context.Background())
	err = sess.Run(ctx)
	stop()
	if store != nil {
		store.Close()
	}

	var sigErr *session.SignalError
	switch {
	case err == nil:
	case errors.As(err, &sigErr):
		os.Exit(sigErr.ExitCode())
	default:
		logging.Fatal("Launch of job %q failed: %v", jobName, err)
	}
}
