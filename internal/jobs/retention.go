package jobs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Crediflexi/internal/logger"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls the generated-report sweeper.
type RetentionConfig struct {
	Schedule      string // cron expression
	Folder        string // where date-stamped reports are written
	RetentionDays int
}

// RetentionService deletes generated report workbooks older than the
// retention window. Only files matching the report naming convention are
// touched; uploads awaiting processing are left alone.
type RetentionService struct {
	cfg   RetentionConfig
	cron  *cron.Cron
	nowFn func() time.Time
}

func NewRetentionService(cfg RetentionConfig) *RetentionService {
	return &RetentionService{cfg: cfg, nowFn: time.Now}
}

func (s *RetentionService) Name() string {
	return "report-retention"
}

func (s *RetentionService) Start() error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		removed, err := s.SweepOnce()
		if err != nil {
			log.Printf("[RetentionService] sweep failed: %v", err)
			return
		}
		logger.Audit("retention sweep removed %d expired report(s)", removed)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %v", err)
	}
	s.cron = c
	c.Start()
	log.Println("[RetentionService] scheduled on", s.cfg.Schedule)
	return nil
}

func (s *RetentionService) Stop() error {
	if s.cron != nil {
		s.cron.Stop()
	}
	return nil
}

// IsReportFile reports whether a file name follows the generated-report
// naming convention (Reporte*_DDMMYYYY[...].xlsx).
func IsReportFile(name string) bool {
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return false
	}
	return strings.HasPrefix(name, "Reporte")
}

// SweepOnce removes expired report files and returns how many it deleted.
func (s *RetentionService) SweepOnce() (int, error) {
	if s.cfg.RetentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.nowFn().AddDate(0, 0, -s.cfg.RetentionDays)
	entries, err := os.ReadDir(s.cfg.Folder)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !IsReportFile(e.Name()) {
			continue
		}
		full := filepath.Join(s.cfg.Folder, e.Name())
		info, err := os.Stat(full)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(full); err != nil {
			log.Printf("[RetentionService] could not remove %s: %v", full, err)
			continue
		}
		removed++
	}
	return removed, nil
}
