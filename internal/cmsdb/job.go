package cmsdb

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Job is a careers listing.
type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Department   string    `json:"department"`
	Location     string    `json:"location"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	Remote       bool      `json:"remote"`
	Type         string    `json:"type"` // full-time, part-time, contract, ...
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Visible      bool      `json:"visible"`
	Applicants   int       `json:"applicants"`
	CreatedBy    string    `json:"createdBy"`
	UpdatedBy    string    `json:"updatedBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (j *Job) recordID() string { return j.ID }

func (j *Job) stamp(id string, now time.Time) {
	j.ID = id
	j.CreatedAt = now
	j.UpdatedAt = now

	if j.Requirements == nil {
		j.Requirements = []string{}
	}
}

func (j *Job) touch(now time.Time) { j.UpdatedAt = now }

func (db *DB) GetJobs(ctx context.Context) ([]Job, error) {
	jobs, err := list[Job](ctx, db, Jobs)

	return jobs, withContext(err, "get_jobs", Jobs, "")
}

// GetVisibleJobs returns the jobs shown on the public careers page.
func (db *DB) GetVisibleJobs(ctx context.Context) ([]Job, error) {
	jobs, err := list[Job](ctx, db, Jobs)
	if err != nil {
		return nil, withContext(err, "get_visible_jobs", Jobs, "")
	}

	visible := []Job{}

	for _, j := range jobs {
		if j.Visible {
			visible = append(visible, j)
		}
	}

	return visible, nil
}

func (db *DB) GetJobByID(ctx context.Context, id string) (Job, error) {
	j, err := getByID[Job](ctx, db, Jobs, id)

	return j, withContext(err, "get_job", Jobs, id)
}

func (db *DB) CreateJob(ctx context.Context, j Job) (Job, error) {
	if strings.TrimSpace(j.Title) == "" {
		return Job{}, withContext(fmt.Errorf("%w: title is required", ErrValidation), "create_job", Jobs, "")
	}

	out, err := insert(ctx, db, Jobs, j, nil)

	return out, withContext(err, "create_job", Jobs, out.ID)
}

func (db *DB) UpdateJob(ctx context.Context, id string, patch Patch) (Job, error) {
	out, err := update[Job](ctx, db, Jobs, id, patch, nil)

	return out, withContext(err, "update_job", Jobs, id)
}

func (db *DB) DeleteJob(ctx context.Context, id string) error {
	return withContext(remove[Job](ctx, db, Jobs, id), "delete_job", Jobs, id)
}

// IncrementApplicants adds one to the job's applicant count.
func (db *DB) IncrementApplicants(ctx context.Context, id string) (Job, error) {
	out, err := modify[Job](ctx, db, Jobs, id, func(j *Job) error {
		j.Applicants++

		return nil
	}, nil)

	return out, withContext(err, "increment_applicants", Jobs, id)
}
