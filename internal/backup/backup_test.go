package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskloop/internal/repository/sqlite"
	"taskloop/internal/storage"
)

type fakeStorage struct {
	uploads  []string
	snapshot []byte
	objects  []storage.ObjectInfo
	deleted  []string
}

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, key, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	f.snapshot = data
	f.uploads = append(f.uploads, key)
	return "s3://" + bucket + "/" + key, nil
}

func (f *fakeStorage) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	return f.objects, nil
}

func (f *fakeStorage) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	f.deleted = append(f.deleted, keys...)
	return nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO notes (body) VALUES ('hello')`)
	require.NoError(t, err)

	return db
}

func TestManager_RunOnce(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStorage{}

	mgr := NewManager(Config{
		Bucket:    "backups",
		KeyPrefix: "taskloop",
		Keep:      5,
	}, db, store)

	require.NoError(t, mgr.RunOnce(context.Background()))

	require.Len(t, store.uploads, 1)
	assert.True(t, strings.HasPrefix(store.uploads[0], "taskloop/"))
	assert.True(t, strings.HasSuffix(store.uploads[0], ".db"))
	assert.NotEmpty(t, store.snapshot, "snapshot upload must carry the database bytes")
}

func TestManager_Prune(t *testing.T) {
	db := newTestDB(t)

	stamp := func(i int) *time.Time {
		ts := time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC)
		return &ts
	}
	store := &fakeStorage{
		objects: []storage.ObjectInfo{
			{Key: "taskloop/20260101T010000-a.db", LastModified: stamp(1)},
			{Key: "taskloop/20260101T020000-b.db", LastModified: stamp(2)},
			{Key: "taskloop/20260101T030000-c.db", LastModified: stamp(3)},
			{Key: "taskloop/20260101T040000-d.db", LastModified: stamp(4)},
		},
	}

	mgr := NewManager(Config{
		Bucket:    "backups",
		KeyPrefix: "taskloop",
		Keep:      2,
	}, db, store)

	require.NoError(t, mgr.RunOnce(context.Background()))

	// the two oldest snapshots go, the newest stay
	assert.Equal(t, []string{
		"taskloop/20260101T010000-a.db",
		"taskloop/20260101T020000-b.db",
	}, store.deleted)
}
