package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskloop/internal/storage"
)

// Manager periodically snapshots the sqlite database and uploads the
// snapshot to object storage, pruning old copies past the retention
// count.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	RunOnce(ctx context.Context) error
}

type Config struct {
	Bucket    string
	KeyPrefix string
	Interval  time.Duration
	Keep      int
	Logger    *logrus.Logger
}

type manager struct {
	cfg     Config
	db      *sql.DB
	storage storage.Service

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewManager(cfg Config, db *sql.DB, store storage.Service) Manager {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 24
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		db:      db,
		storage: store,
	}
}

func (m *manager) Start(ctx context.Context) error {
	if m.cfg.Bucket == "" {
		return fmt.Errorf("backup bucket is required")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := m.RunOnce(runCtx); err != nil {
					m.cfg.Logger.Warnf("backup run: %v", err)
				}
			}
		}
	}()

	m.cfg.Logger.Infof("backup manager started, bucket %s every %s", m.cfg.Bucket, m.cfg.Interval)
	return nil
}

func (m *manager) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.cfg.Logger.Info("backup manager stopped")
}

// RunOnce takes one snapshot, uploads it, and prunes old copies.
func (m *manager) RunOnce(ctx context.Context) error {
	path, err := m.snapshot(ctx)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	key := m.snapshotKey()
	location, err := m.storage.UploadFile(ctx, m.cfg.Bucket, key, path)
	if err != nil {
		return err
	}
	m.cfg.Logger.Infof("uploaded backup %s", location)

	if err := m.prune(ctx); err != nil {
		m.cfg.Logger.Warnf("prune backups: %v", err)
	}
	return nil
}

// snapshot writes a consistent copy of the live database with VACUUM
// INTO, which works while other connections keep writing.
func (m *manager) snapshot(ctx context.Context) (string, error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("taskloop-%s.db", uuid.NewString()))

	if _, err := m.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("vacuum into snapshot: %w", err)
	}
	return path, nil
}

func (m *manager) snapshotKey() string {
	prefix := strings.Trim(m.cfg.KeyPrefix, "/")
	name := fmt.Sprintf("%s-%s.db", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (m *manager) prune(ctx context.Context) error {
	objects, err := m.storage.ListObjects(ctx, m.cfg.Bucket, strings.Trim(m.cfg.KeyPrefix, "/"))
	if err != nil {
		return err
	}
	if len(objects) <= m.cfg.Keep {
		return nil
	}

	// timestamped keys sort oldest first
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Key < objects[j].Key
	})

	var stale []string
	for _, obj := range objects[:len(objects)-m.cfg.Keep] {
		stale = append(stale, obj.Key)
	}
	return m.storage.DeleteObjects(ctx, m.cfg.Bucket, stale)
}
