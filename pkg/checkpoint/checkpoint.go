package checkpoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/storage"
)

// Checkpoint is the persisted progress of a review walk. It is rewritten
// after every fully processed page, so it never reflects a partial page.
type Checkpoint struct {
	Cursor      models.Cursor         `json:"cursor"`
	DailyCount  map[models.DayKey]int `json:"daily_count"`
	CurrentPage int                   `json:"current_page"`

	// DailyTally lets a resumed run report days admitted before the restart.
	// Checkpoints written by older versions do not carry it.
	DailyTally map[models.DayKey]models.Tally `json:"daily_tally,omitempty"`
	UpdatedAt  time.Time                      `json:"updated_at,omitempty"`
}

// New returns the state of a run that has not fetched anything yet
func New() *Checkpoint {
	return &Checkpoint{
		Cursor:      models.StartCursor,
		DailyCount:  make(map[models.DayKey]int),
		CurrentPage: 0,
		DailyTally:  make(map[models.DayKey]models.Tally),
	}
}

// HasTallies reports whether the vote split for every counted day is known
func (c *Checkpoint) HasTallies() bool {
	for day, count := range c.DailyCount {
		if count == 0 {
			continue
		}
		if t, ok := c.DailyTally[day]; !ok || t.Total() != count {
			return false
		}
	}
	return true
}

// normalize fills in defaults for fields missing from the file
func (c *Checkpoint) normalize() {
	if c.Cursor == "" {
		c.Cursor = models.StartCursor
	}
	if c.DailyCount == nil {
		c.DailyCount = make(map[models.DayKey]int)
	}
	if c.DailyTally == nil {
		c.DailyTally = make(map[models.DayKey]models.Tally)
	}
	if c.CurrentPage < 0 {
		c.CurrentPage = 0
	}
}

// Manager handles checkpoint operations for a single checkpoint file
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for path, creating its directory
func NewManager(path string) (*Manager, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{
		checkpointPath: path,
		logger:         logger.GetLogger(),
	}, nil
}

// WithLogger replaces the manager's logger
func (m *Manager) WithLogger(l logger.Logger) *Manager {
	m.logger = l
	return m
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Load reads the checkpoint. A missing file yields New() and found=false.
func (m *Manager) Load() (cp *Checkpoint, found bool, err error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), false, nil
		}
		return nil, false, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, false, fmt.Errorf("failed to decode checkpoint %s: %w", m.checkpointPath, err)
	}
	checkpoint.normalize()

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":         m.checkpointPath,
		"cursor":       checkpoint.Cursor.String(),
		"current_page": checkpoint.CurrentPage,
		"days":         len(checkpoint.DailyCount),
	})

	return &checkpoint, true, nil
}

// Save writes the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now().UTC()

	_, err := storage.WriteAtomic(m.checkpointPath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(checkpoint); err != nil {
			return fmt.Errorf("failed to encode checkpoint: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"cursor":       checkpoint.Cursor.String(),
		"current_page": checkpoint.CurrentPage,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint deleted", map[string]interface{}{
		"path": m.checkpointPath,
	})
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// Info summarises a stored checkpoint for display
type Info struct {
	Path        string
	Cursor      models.Cursor
	CurrentPage int
	Days        int
	Admitted    int
	HasTallies  bool
	UpdatedAt   time.Time
}

// GetCheckpointInfo returns a summary of the checkpoint, or nil if none exists
func (m *Manager) GetCheckpointInfo() (*Info, error) {
	checkpoint, found, err := m.Load()
	if err != nil || !found {
		return nil, err
	}

	admitted := 0
	for _, n := range checkpoint.DailyCount {
		admitted += n
	}

	return &Info{
		Path:        m.checkpointPath,
		Cursor:      checkpoint.Cursor,
		CurrentPage: checkpoint.CurrentPage,
		Days:        len(checkpoint.DailyCount),
		Admitted:    admitted,
		HasTallies:  checkpoint.HasTallies(),
		UpdatedAt:   checkpoint.UpdatedAt,
	}, nil
}

// BackupCheckpoint copies the current checkpoint to <path>.backup
func (m *Manager) BackupCheckpoint() (string, error) {
	if !m.Exists() {
		return "", nil
	}

	backupPath := m.checkpointPath + ".backup"

	src, err := os.Open(m.checkpointPath)
	if err != nil {
		return "", fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	if _, err := storage.WriteAtomic(backupPath, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	}); err != nil {
		return "", fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	m.logger.Debug("Checkpoint backed up")
	return backupPath, nil
}
