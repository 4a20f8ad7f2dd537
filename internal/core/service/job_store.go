package service

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

// JobSnapshot is a consistent copy of the job cache.
type JobSnapshot struct {
	Jobs       []domain.PrintJob  `json:"jobs"`
	Pagination *domain.Pagination `json:"pagination"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
}

// JobStore caches the session's print jobs.
type JobStore struct {
	api    ports.JobAPI
	reader Reader
	now    func() time.Time

	mu         sync.RWMutex
	st         state
	jobs       []domain.PrintJob
	pagination *domain.Pagination
}

func NewJobStore(api ports.JobAPI, reader Reader) *JobStore {
	return &JobStore{api: api, reader: reader, now: time.Now}
}

func (s *JobStore) Fetch(ctx context.Context, q domain.JobQuery) ([]domain.PrintJob, error) {
	s.mu.Lock()
	s.st.begin()
	s.mu.Unlock()

	page, err := read(ctx, s.reader, "jobs.list", func(ctx context.Context) (*domain.Page[domain.PrintJob], error) {
		return s.api.List(ctx, q)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.end(err)
	if err != nil {
		return nil, err
	}
	s.jobs = page.Items
	s.pagination = paginationFor(page.Pagination, q.Page, q.PageSize, len(page.Items))
	return slices.Clone(s.jobs), nil
}

func (s *JobStore) FetchOne(ctx context.Context, id int64) (*domain.PrintJob, error) {
	job, err := read(ctx, s.reader, "jobs.get", func(ctx context.Context) (*domain.PrintJob, error) {
		return s.api.Get(ctx, id)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.replace(*job)
	return job, nil
}

// Submit uploads a document and puts the new job at the front of the cache.
func (s *JobStore) Submit(ctx context.Context, sub domain.JobSubmission) (*domain.PrintJob, error) {
	fields := map[string][]string{}
	if sub.File == nil || sub.FileName == "" {
		fields["file"] = []string{"required"}
	}
	if sub.PrinterID <= 0 {
		fields["printer_id"] = []string{"required"}
	}
	if sub.Copies < 0 {
		fields["copies"] = []string{"must be positive"}
	}
	if len(fields) > 0 {
		return nil, domain.ValidationError("invalid print job", fields)
	}

	job, err := s.api.Submit(ctx, sub)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.jobs = append([]domain.PrintJob{*job}, s.jobs...)
	s.mu.Unlock()
	return job, nil
}

// Cancel refuses jobs the cache already knows to be finished; otherwise it
// asks the backend and marks the cached job cancelled.
func (s *JobStore) Cancel(ctx context.Context, id int64) error {
	if job, ok := s.find(id); ok && job.Status.Terminal() {
		return domain.ValidationError("job has already finished", map[string][]string{
			"status": {string(job.Status)},
		})
	}
	if err := s.api.Cancel(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.UpdateStatus(id, domain.JobCancelled)
	return nil
}

func (s *JobStore) Resubmit(ctx context.Context, id int64) (*domain.PrintJob, error) {
	job, err := s.api.Resubmit(ctx, id)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i] = *job
			return job, nil
		}
	}
	s.jobs = append([]domain.PrintJob{*job}, s.jobs...)
	return job, nil
}

func (s *JobStore) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, id); err != nil {
		s.fail(err)
		return err
	}
	s.remove(id)
	return nil
}

func (s *JobStore) BatchCancel(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return domain.ValidationError("no jobs selected", map[string][]string{"job_ids": {"required"}})
	}
	if err := s.api.BatchCancel(ctx, ids); err != nil {
		s.fail(err)
		return err
	}
	for _, id := range ids {
		s.UpdateStatus(id, domain.JobCancelled)
	}
	return nil
}

func (s *JobStore) BatchDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return domain.ValidationError("no jobs selected", map[string][]string{"job_ids": {"required"}})
	}
	if err := s.api.BatchDelete(ctx, ids); err != nil {
		s.fail(err)
		return err
	}
	s.remove(ids...)
	return nil
}

// UpdateStatus applies a server-driven status change to the cached job. It
// reports whether the job was cached.
func (s *JobStore) UpdateStatus(id int64, status domain.JobStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			s.jobs[i].Status = status
			s.jobs[i].UpdatedAt = s.now()
			return true
		}
	}
	return false
}

func (s *JobStore) Preview(ctx context.Context, id int64) (*domain.Blob, error) {
	blob, err := read(ctx, s.reader, "jobs.preview", func(ctx context.Context) (*domain.Blob, error) {
		return s.api.Preview(ctx, id)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return blob, nil
}

func (s *JobStore) Jobs() []domain.PrintJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.jobs)
}

// Active returns pending and printing jobs.
func (s *JobStore) Active() []domain.PrintJob {
	return s.filter(func(j domain.PrintJob) bool { return j.Status.Active() })
}

func (s *JobStore) Completed() []domain.PrintJob {
	return s.filter(func(j domain.PrintJob) bool { return j.Status == domain.JobCompleted })
}

func (s *JobStore) Failed() []domain.PrintJob {
	return s.filter(func(j domain.PrintJob) bool { return j.Status == domain.JobFailed })
}

func (s *JobStore) ByStatus() map[domain.JobStatus][]domain.PrintJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.JobStatus][]domain.PrintJob)
	for _, j := range s.jobs {
		out[j.Status] = append(out[j.Status], j)
	}
	return out
}

// ByPrinter groups the cache by printer id.
func (s *JobStore) ByPrinter() map[string][]domain.PrintJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]domain.PrintJob)
	for _, j := range s.jobs {
		key := strconv.FormatInt(j.PrinterID, 10)
		out[key] = append(out[key], j)
	}
	return out
}

func (s *JobStore) Snapshot() JobSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return JobSnapshot{
		Jobs:       slices.Clone(s.jobs),
		Pagination: s.pagination,
		Loading:    s.st.loading,
		Error:      s.st.lastError,
	}
}

func (s *JobStore) filter(keep func(domain.PrintJob) bool) []domain.PrintJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.PrintJob{}
	for _, j := range s.jobs {
		if keep(j) {
			out = append(out, j)
		}
	}
	return out
}

func (s *JobStore) find(id int64) (domain.PrintJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return domain.PrintJob{}, false
}

func (s *JobStore) replace(job domain.PrintJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.jobs {
		if s.jobs[i].ID == job.ID {
			s.jobs[i] = job
			return
		}
	}
}

func (s *JobStore) remove(ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = slices.DeleteFunc(s.jobs, func(j domain.PrintJob) bool {
		return slices.Contains(ids, j.ID)
	})
}

func (s *JobStore) fail(err error) {
	s.mu.Lock()
	s.st.end(err)
	s.mu.Unlock()
}
