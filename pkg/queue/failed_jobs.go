package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// FailedJob is a job that exhausted its attempts or could not be decoded.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"jobType"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"index" json:"failedAt"`
}

func (FailedJob) TableName() string { return "greatsoko_failed_jobs" }

// FailedStore keeps failed jobs for inspection by `queue:failed`.
type FailedStore interface {
	Record(ctx context.Context, job FailedJob) error
	// List returns the newest jobs first, at most limit of them.
	List(ctx context.Context, limit int) ([]FailedJob, error)
}

// GormFailedStore persists failed jobs in the SQL jobs database.
type GormFailedStore struct {
	db *gorm.DB
}

// NewGormFailedStore migrates the failed jobs table.
func NewGormFailedStore(db *gorm.DB) (*GormFailedStore, error) {
	if err := db.AutoMigrate(&FailedJob{}); err != nil {
		return nil, fmt.Errorf("queue: migrate failed jobs: %w", err)
	}
	return &GormFailedStore{db: db}, nil
}

func (s *GormFailedStore) Record(ctx context.Context, job FailedJob) error {
	if job.FailedAt.IsZero() {
		job.FailedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&job).Error
}

func (s *GormFailedStore) List(ctx context.Context, limit int) ([]FailedJob, error) {
	var out []FailedJob
	q := s.db.WithContext(ctx).Order("failed_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("queue: list failed jobs: %w", err)
	}
	return out, nil
}

// MemoryFailedStore is used when no jobs database is configured.
type MemoryFailedStore struct {
	mu   sync.Mutex
	jobs []FailedJob
}

func NewMemoryFailedStore() *MemoryFailedStore { return &MemoryFailedStore{} }

func (s *MemoryFailedStore) Record(_ context.Context, job FailedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = uint(len(s.jobs) + 1)
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *MemoryFailedStore) List(_ context.Context, limit int) ([]FailedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FailedJob, 0, len(s.jobs))
	for i := len(s.jobs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.jobs[i])
	}
	return out, nil
}
