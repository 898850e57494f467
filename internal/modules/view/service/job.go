package view

import "context"

const SyncJobName = "post-view-sync"

// SyncJob runs SyncViews on a cron schedule.
type SyncJob struct {
	service  ViewService
	schedule string
}

func NewSyncJob(service ViewService, schedule string) *SyncJob {
	return &SyncJob{service: service, schedule: schedule}
}

func (j *SyncJob) Name() string     { return SyncJobName }
func (j *SyncJob) Schedule() string { return j.schedule }

func (j *SyncJob) Run(ctx context.Context) error {
	_, err := j.service.SyncViews(ctx)
	return err
}
