package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/case-framework/records-portal/pkg/db/records"
	"github.com/case-framework/records-portal/pkg/utils"
)

const defaultOrphanMinAge = time.Hour

func main() {
	slog.Info("Starting lock cleanup job")
	start := time.Now()

	if conf.RecreateIndexes {
		slog.Info("Recreating indexes")
		recordsDBService.DropIndexes()
		if err := recordsDBService.CreateDefaultIndexes(); err != nil {
			slog.Error("Error creating indexes", slog.String("error", err.Error()))
		}
	}

	released, err := recordsDBService.ReleaseExpiredLocks(start)
	if err != nil {
		slog.Error("Failed to release expired locks", slog.String("error", err.Error()))
	} else {
		slog.Info("Expired document locks released", slog.Int64("count", released))
	}

	if conf.CleanUpConfig.CleanOrphanedVersions {
		cleanUpOrphanedVersionFiles(start)
	}

	if err := recordsDBService.Close(); err != nil {
		slog.Error("Error closing Records DB", slog.String("error", err.Error()))
	}
	slog.Info("Lock cleanup job completed", slog.String("duration", time.Since(start).String()))
}

// cleanUpOrphanedVersionFiles removes stored contents no version refers to,
// left behind by checkins that failed after the file was written.
func cleanUpOrphanedVersionFiles(now time.Time) {
	minAge, err := utils.DurationOrDefault(conf.CleanUpConfig.OrphanMinAge, defaultOrphanMinAge)
	if err != nil {
		slog.Error("Invalid orphan min age", slog.String("error", err.Error()))
		return
	}

	slog.Info("Cleaning up orphaned version files", slog.String("path", conf.CleanUpConfig.FilestorePath))
	entries, err := os.ReadDir(conf.CleanUpConfig.FilestorePath)
	if err != nil {
		slog.Error("Failed to read filestore", slog.String("error", err.Error()))
		return
	}

	for _, file := range orphanCandidates(entries, now, minAge) {
		_, err := recordsDBService.GetVersionByFileID(file)
		if err == nil {
			continue
		}
		if !records.IsVersionNotFound(err) {
			slog.Error("Failed to look up version", slog.String("error", err.Error()), slog.String("file", file))
			continue
		}
		slog.Info("Version for file not found, removing file", slog.String("file", file))
		if err := os.Remove(filepath.Join(conf.CleanUpConfig.FilestorePath, file)); err != nil {
			slog.Error("Failed to remove file", slog.String("error", err.Error()), slog.String("file", file))
		}
	}
}

// orphanCandidates lists the regular files last modified before now-minAge.
func orphanCandidates(entries []os.DirEntry, now time.Time, minAge time.Duration) []string {
	candidates := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < minAge {
			continue
		}
		candidates = append(candidates, entry.Name())
	}
	return candidates
}
