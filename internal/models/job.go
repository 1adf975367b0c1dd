package models

import "time"

// JobKind identifies which orchestrator operation a job runs
type JobKind string

const (
	JobKindVideo    JobKind = "video"
	JobKindSubtitle JobKind = "subtitle"
)

// JobStatus tracks the lifecycle of an asynchronous download
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// IsFinished reports whether the job reached a terminal state
func (s JobStatus) IsFinished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Job is the persisted record of an asynchronous download
type Job struct {
	ID         string                  `json:"id"`
	Kind       JobKind                 `json:"kind"`
	URL        string                  `json:"url"`
	OutputDir  string                  `json:"output_dir"`
	Status     JobStatus               `json:"status"`
	Error      string                  `json:"error,omitempty"`
	Video      *VideoDownloadResult    `json:"video,omitempty"`
	Subtitle   *SubtitleDownloadResult `json:"subtitle,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	StartedAt  time.Time               `json:"started_at,omitzero"`
	FinishedAt time.Time               `json:"finished_at,omitzero"`
}

// Clone returns a copy of j that shares no pointers with it
func (j *Job) Clone() Job {
	c := *j
	if j.Video != nil {
		v := *j.Video
		v.SubtitleFile = cloneString(j.Video.SubtitleFile)
		c.Video = &v
	}
	if j.Subtitle != nil {
		s := *j.Subtitle
		s.SubtitleFile = cloneString(j.Subtitle.SubtitleFile)
		c.Subtitle = &s
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
