package chi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/feedsearch/internal/logger"
)

// Reindex job states.
const (
	jobRunning  = "running"
	jobDone     = "done"
	jobCanceled = "canceled"
	jobFailed   = "failed"
)

// reindexJob tracks a background reindex and serves as its progress sink.
type reindexJob struct {
	startedAt time.Time
	cancel    context.CancelFunc
	finished  chan struct{}

	total    atomic.Int64
	worked   atomic.Int64
	canceled atomic.Bool

	mu    sync.Mutex
	state string
	err   string
}

func newReindexJob(cancel context.CancelFunc) *reindexJob {
	return &reindexJob{
		startedAt: time.Now(),
		cancel:    cancel,
		finished:  make(chan struct{}),
		state:     jobRunning,
	}
}

func (j *reindexJob) Begin(total int)  { j.total.Store(int64(total)) }
func (j *reindexJob) Worked(n int)     { j.worked.Add(int64(n)) }
func (j *reindexJob) IsCanceled() bool { return j.canceled.Load() }
func (j *reindexJob) Done()            {}

// requestCancel asks the reindex to stop at the next item. The job context
// stays alive so the clear and final commit can complete.
func (j *reindexJob) requestCancel() {
	j.canceled.Store(true)
}

// abort cancels the job context as well. Used on shutdown.
func (j *reindexJob) abort() {
	j.canceled.Store(true)
	j.cancel()
}

func (j *reindexJob) finish(err error) {
	j.mu.Lock()
	switch {
	case err != nil && j.canceled.Load() && errors.Is(err, context.Canceled):
		j.state = jobCanceled
	case err != nil:
		j.state, j.err = jobFailed, err.Error()
	case j.canceled.Load():
		j.state = jobCanceled
	default:
		j.state = jobDone
	}
	j.mu.Unlock()
	close(j.finished)
}

func (j *reindexJob) running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == jobRunning
}

type reindexStatus struct {
	State     string    `json:"state"`
	Total     int64     `json:"total"`
	Indexed   int64     `json:"indexed"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"`
}

func (j *reindexJob) status() reindexStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return reindexStatus{
		State:     j.state,
		Total:     j.total.Load(),
		Indexed:   j.worked.Load(),
		StartedAt: j.startedAt,
		Error:     j.err,
	}
}

// StartReindex handles POST /v1/index/reindex. The reindex runs in the
// background; progress is served by ReindexStatus.
func (s *Server) StartReindex(w http.ResponseWriter, r *http.Request) {
	s.jobMu.Lock()
	if s.job != nil && s.job.running() {
		s.jobMu.Unlock()
		writeError(w, http.StatusConflict, codeReindexRunning, "a reindex is already running")
		return
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	job := newReindexJob(cancel)
	s.job = job
	s.jobMu.Unlock()

	log := logpkg.FromContextOr(r.Context(), s.logger)
	go func() {
		defer cancel()
		err := s.search.ReindexAll(ctx, job)
		job.finish(err)
		if st := job.status(); st.State == jobFailed {
			log.Error("Reindex failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, job.status())
}

// ReindexStatus handles GET /v1/index/reindex.
func (s *Server) ReindexStatus(w http.ResponseWriter, _ *http.Request) {
	job := s.currentJob()
	if job == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "no reindex has been started")
		return
	}
	writeJSON(w, http.StatusOK, job.status())
}

// CancelReindex handles DELETE /v1/index/reindex. Items indexed so far stay
// searchable.
func (s *Server) CancelReindex(w http.ResponseWriter, _ *http.Request) {
	job := s.currentJob()
	if job == nil || !job.running() {
		writeError(w, http.StatusNotFound, codeNotFound, "no reindex is running")
		return
	}
	job.requestCancel()
	writeJSON(w, http.StatusAccepted, job.status())
}

// Close cancels a running reindex and waits for it to stop or ctx to expire.
func (s *Server) Close(ctx context.Context) error {
	job := s.currentJob()
	if job == nil {
		return nil
	}
	job.abort()
	select {
	case <-job.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) currentJob() *reindexJob {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.job
}
