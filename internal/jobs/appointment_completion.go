// File: internal/jobs/appointment_completion.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"kanoonwise_backend/internal/appointment"
	"kanoonwise_backend/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AppointmentCompletionJob marks confirmed appointments whose slot has ended
// as completed.
type AppointmentCompletionJob struct {
	appointmentService appointment.Service
	logger             *zap.Logger
	cfg                *config.Config
	cronScheduler      *cron.Cron
}

// NewAppointmentCompletionJob creates a new AppointmentCompletionJob.
func NewAppointmentCompletionJob(
	appointmentService appointment.Service,
	logger *zap.Logger,
	cfg *config.Config,
) *AppointmentCompletionJob {
	scheduler := cron.New(cron.WithLogger(NewCronLogger(logger.Named("cron"))))

	return &AppointmentCompletionJob{
		appointmentService: appointmentService,
		logger:             logger.Named("AppointmentCompletionJob"),
		cfg:                cfg,
		cronScheduler:      scheduler,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *AppointmentCompletionJob) SetupAndStart() error {
	jobSpec := j.cfg.AppointmentCompletionJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Appointment completion job schedule not defined (APPOINTMENT_COMPLETION_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule appointment completion job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Appointment completion job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *AppointmentCompletionJob) runJob() {
	j.logger.Info("Starting appointment completion job run...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	completedCount, err := j.appointmentService.CompleteElapsed(ctx)
	if err != nil {
		j.logger.Error("Appointment completion job run failed", zap.Error(err))
	} else {
		j.logger.Info("Appointment completion job run completed", zap.Int("appointments_completed", completedCount))
	}
}

// Stop gracefully stops the cron scheduler.
func (j *AppointmentCompletionJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping appointment completion job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Appointment completion job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Appointment completion job scheduler stop timed out.")
		}
	}
}

// --- Cron Logger Adapter ---

// cronLogger adapts zap.Logger to the cron.Logger interface.
type cronLogger struct {
	zl *zap.Logger
}

// NewCronLogger creates a new cronLogger.
func NewCronLogger(zl *zap.Logger) cron.Logger {
	return &cronLogger{zl: zl}
}

// Info logs routine messages from cron.
func (cl *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	cl.zl.Info(msg, fields...)
}

// Error logs error messages from cron.
func (cl *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := cl.parseKeysAndValues(keysAndValues...)
	fields = append(fields, zap.Error(err))
	cl.zl.Error(msg, fields...)
}

func (cl *cronLogger) parseKeysAndValues(keysAndValues ...interface{}) []zap.Field {
	var fields []zap.Field
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(fmt.Sprintf("%v", keysAndValues[i]), "MISSING_VALUE"))
		}
	}
	return fields
}
