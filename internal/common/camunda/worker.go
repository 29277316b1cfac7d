// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"sponsorloop-workers/internal/common/config"
	"sponsorloop-workers/internal/common/errors"
	"sponsorloop-workers/internal/common/logger"
	"sponsorloop-workers/internal/common/metrics"
	"sponsorloop-workers/internal/common/observability"
	"sponsorloop-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobFunc decodes a job's variables and runs it. The returned value becomes
// the job's output variables.
type JobFunc func(ctx context.Context, variables string) (interface{}, error)

// Runtime carries what every worker shares: input validation, error
// reporting and job metrics.
type Runtime struct {
	Validator     *validation.Validator
	Errors        *errors.ErrorHandler
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewRuntime(v *validation.Validator, obs *observability.Observability, log logger.Logger) *Runtime {
	return &Runtime{
		Validator:     v,
		Errors:        errors.NewErrorHandler(log),
		Observability: obs,
		Logger:        log,
	}
}

// Run validates variables, executes fn under timeout and records the outcome.
func (r *Runtime) Run(ctx context.Context, taskType string, timeout time.Duration, variables string, fn JobFunc) (interface{}, error) {
	timer := metrics.StartJob(taskType)

	output, err := r.run(ctx, taskType, timeout, variables, fn)

	status, code := "completed", ""
	if err != nil {
		status, code = "failed", string(errors.AsStandardError(err).Code)
	}
	elapsed := timer.Done(code)
	r.Observability.RecordJob(ctx, taskType, status, elapsed)
	return output, err
}

func (r *Runtime) run(ctx context.Context, taskType string, timeout time.Duration, variables string, fn JobFunc) (interface{}, error) {
	if err := r.Validator.ValidateInput(taskType, variables); err != nil {
		return nil, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return fn(ctx, variables)
}

// Handler adapts fn to the Zeebe job handler signature.
func (r *Runtime) Handler(taskType string, timeout time.Duration, fn JobFunc) worker.JobHandler {
	log := r.Logger.WithFields(map[string]interface{}{"taskType": taskType})

	return func(client worker.JobClient, job entities.Job) {
		log.Info("Processing job", map[string]interface{}{
			"jobKey":             job.Key,
			"processInstanceKey": job.ProcessInstanceKey,
		})

		ctx := context.Background()
		output, err := r.Run(ctx, taskType, timeout, job.Variables, fn)
		if err != nil {
			r.Errors.HandleJobError(ctx, client, job, err)
			return
		}
		r.completeJob(ctx, client, job, output, log)
	}
}

func (r *Runtime) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		log.Error("Failed to create complete job command", map[string]interface{}{"jobKey": job.Key, "error": err})
		r.Errors.HandleJobError(ctx, client, job, err)
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		log.Error("Failed to send complete job command", map[string]interface{}{"jobKey": job.Key, "error": err})
		return
	}
	log.Info("Job completed", map[string]interface{}{"jobKey": job.Key})
}

// StartWorker opens a job worker for taskType using the worker's configured
// concurrency and timeout.
func StartWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, rt *Runtime, fn JobFunc) worker.JobWorker {
	timeout := config.GetDuration(wcfg.Timeout)

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(rt.Handler(taskType, timeout, fn)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(timeout).
		Open()

	rt.Logger.Info("Worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout":       timeout.String(),
	})
	return w
}
