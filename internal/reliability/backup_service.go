// Package reliability keeps the data directory backed up and the metadata database healthy.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/etfscope/internal/utils"
	"github.com/rs/zerolog"
)

const (
	backupPrefix    = "etfscope-backup-"
	backupSuffix    = ".tar.gz"
	backupTimestamp = "2006-01-02-150405"
	manifestName    = "backup-manifest.json"

	// MinBackupsToKeep is the number of newest backups rotation never deletes
	MinBackupsToKeep = 3
)

// Checkpointer makes the on-disk database file self-contained before it is copied
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// BackupManifest lists the archived files
type BackupManifest struct {
	Timestamp time.Time      `json:"timestamp"`
	Files     []FileManifest `json:"files"`
}

// FileManifest describes one archived file
type FileManifest struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes a stored backup
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService archives the CSV series and the metadata database to an object store
type BackupService struct {
	store   ObjectStore
	db      Checkpointer
	dataDir string
	dbPath  string
	now     func() time.Time
	log     zerolog.Logger
}

// NewBackupService creates a new backup service. db and dbPath may be empty when
// there is no metadata database to include.
func NewBackupService(store ObjectStore, db Checkpointer, dataDir, dbPath string, log zerolog.Logger) *BackupService {
	return &BackupService{
		store:   store,
		db:      db,
		dataDir: dataDir,
		dbPath:  dbPath,
		now:     time.Now,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload writes every stored series and the metadata database into a
// tar.gz archive and uploads it
func (s *BackupService) CreateAndUpload(ctx context.Context) (*BackupInfo, error) {
	timer := utils.NewTimer("backup", s.log)
	timestamp := s.now().UTC()

	if s.db != nil {
		if err := s.db.Checkpoint(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Checkpoint before backup failed")
		}
	}

	files, err := s.collectFiles()
	if err != nil {
		return nil, err
	}

	staging, err := os.CreateTemp("", backupPrefix+"*"+backupSuffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	defer os.Remove(staging.Name())
	defer staging.Close()

	manifest, err := writeArchive(staging, files, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	size, err := staging.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to size archive: %w", err)
	}
	if _, err := staging.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind archive: %w", err)
	}

	name := backupPrefix + timestamp.Format(backupTimestamp) + backupSuffix
	if err := s.store.Upload(ctx, name, staging); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("archive", name).
		Int("files", len(manifest.Files)).
		Int64("size_bytes", size).
		Dur("duration_ms", timer.Stop()).
		Msg("Backup uploaded")

	return &BackupInfo{Filename: name, Timestamp: timestamp, SizeBytes: size}, nil
}

// collectFiles returns archive name -> path for every file to back up
func (s *BackupService) collectFiles() (map[string]string, error) {
	files := make(map[string]string)

	entries, err := os.ReadDir(s.dataDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		files["data/"+name] = filepath.Join(s.dataDir, name)
	}

	if s.dbPath != "" {
		if _, err := os.Stat(s.dbPath); err == nil {
			files["db/"+filepath.Base(s.dbPath)] = s.dbPath
		}
	}
	return files, nil
}

// writeArchive streams files into w as tar.gz, followed by a manifest
func writeArchive(w io.Writer, files map[string]string, timestamp time.Time) (*BackupManifest, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := &BackupManifest{Timestamp: timestamp, Files: make([]FileManifest, 0, len(names))}
	for _, name := range names {
		entry, err := addFileToArchive(tw, files[name], name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
		manifest.Files = append(manifest.Files, *entry)
	}

	body, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	header := &tar.Header{Name: manifestName, Size: int64(len(body)), Mode: 0644, ModTime: timestamp}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}
	if _, err := tw.Write(body); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return manifest, nil
}

func addFileToArchive(tw *tar.Writer, path, name string) (*FileManifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	header := &tar.Header{
		Name:    name,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return nil, err
	}

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tw, hash), file); err != nil {
		return nil, err
	}

	return &FileManifest{
		Name:      name,
		SizeBytes: info.Size(),
		Checksum:  fmt.Sprintf("sha256:%x", hash.Sum(nil)),
	}, nil
}

// ListBackups returns the stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	now := s.now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, backupPrefix) || !strings.HasSuffix(obj.Key, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(obj.Key, backupPrefix), backupSuffix)
		timestamp, err := time.Parse(backupTimestamp, stamp)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}

		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: timestamp,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes backups older than retentionDays, always keeping the
// newest MinBackupsToKeep. A retention of 0 keeps everything.
func (s *BackupService) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= MinBackupsToKeep {
		return 0, nil
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, backup := range backups[MinBackupsToKeep:] {
		if !backup.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return deleted, nil
}
