package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"rifa/internal/model"
)

var ErrParticipationNotFound = errors.New("participation not found")

// Store persists the whole participation collection at once.
type Store interface {
	Load(ctx context.Context) ([]model.Participation, error)
	Save(ctx context.Context, all []model.Participation) error
}

type fileStore struct {
	path string
	log  *zerolog.Logger
}

// NewFileStore returns a Store backed by a single JSON array document at path.
func NewFileStore(path string, log *zerolog.Logger) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("data file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &fileStore{path: path, log: log}, nil
}

// Load never fails: a missing file is initialized empty and an unreadable one is moved
// aside and treated as empty.
func (s *fileStore) Load(ctx context.Context) ([]model.Participation, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.Save(ctx, []model.Participation{}); err != nil {
			s.log.Error().Err(err).Str("path", s.path).Msg("failed to initialize data file")
		}
		return []model.Participation{}, nil
	}
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to read data file, using empty collection")
		return []model.Participation{}, nil
	}

	var all []model.Participation
	if err := json.Unmarshal(data, &all); err != nil {
		s.quarantine(err)
		return []model.Participation{}, nil
	}
	if all == nil {
		all = []model.Participation{}
	}
	return all, nil
}

// quarantine keeps an unparsable data file from being overwritten by the next Save.
func (s *fileStore) quarantine(cause error) {
	bad := s.path + ".corrupt-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := os.Rename(s.path, bad); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to move corrupt data file aside")
	}
	s.log.Error().Err(cause).Str("moved_to", bad).Msg("data file is not valid JSON, using empty collection")
}

func (s *fileStore) Save(_ context.Context, all []model.Participation) error {
	if all == nil {
		all = []model.Participation{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal participations: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	s.log.Debug().Int("count", len(all)).Str("path", s.path).Msg("participations saved")
	return nil
}

// FindByID returns the index of the participation with the given id.
func FindByID(all []model.Participation, id string) (int, error) {
	for i := range all {
		if all[i].ID == id {
			return i, nil
		}
	}
	return -1, ErrParticipationNotFound
}
