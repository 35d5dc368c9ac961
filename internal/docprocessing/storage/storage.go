package storage

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/ocragent/ocr-agent/internal/docprocessing/domain"
)

// TempStorage keeps engine comparison jobs in memory. Nothing is written
// to disk; jobs expire after a TTL.
type TempStorage struct {
	mu   sync.RWMutex
	jobs map[string]*domain.ComparisonJob
	ttl  time.Duration
	now  func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTempStorage creates a new in-memory temp storage with the given TTL
// and starts its cleanup loop. Call Close to stop it.
func NewTempStorage(ttl time.Duration) *TempStorage {
	s := &TempStorage{
		jobs: make(map[string]*domain.ComparisonJob),
		ttl:  ttl,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// GenerateJobID creates a cryptographically random job ID
func GenerateJobID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// StoreJob stores a comparison job
func (s *TempStorage) StoreJob(job *domain.ComparisonJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
}

// GetJob returns a snapshot of the job, or nil when unknown or expired.
func (s *TempStorage) GetJob(jobID string) *domain.ComparisonJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok || s.expired(job) {
		return nil
	}
	cp := *job
	return &cp
}

// UpdateJob updates an existing job under the storage lock
func (s *TempStorage) UpdateJob(jobID string, update func(*domain.ComparisonJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		update(job)
	}
}

// DeleteJob removes a job from storage
func (s *TempStorage) DeleteJob(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}

// Len returns the number of stored jobs, expired ones included until the
// next sweep.
func (s *TempStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// Close stops the cleanup loop.
func (s *TempStorage) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// ZeroBytes overwrites a byte slice with zeros so image data does not
// linger in memory.
func ZeroBytes(b []byte) {
	clear(b)
}

func (s *TempStorage) expired(job *domain.ComparisonJob) bool {
	return job.CreatedAt.Before(s.now().Add(-s.ttl))
}

func (s *TempStorage) cleanupLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *TempStorage) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, job := range s.jobs {
		if s.expired(job) {
			delete(s.jobs, id)
		}
	}
}
