package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Archiver keeps a tournament's final snapshot once it completes.
type Archiver interface {
	ArchiveFinal(ctx context.Context, tournamentID string, snapshot interface{}) (string, error)
	// Discard removes the final snapshot of a tournament that was reset.
	Discard(ctx context.Context, tournamentID string) error
}

type snapshotArchive struct {
	objects ObjectStore
}

func NewSnapshotArchive(objects ObjectStore) Archiver {
	return &snapshotArchive{objects: objects}
}

func FinalSnapshotKey(tournamentID string) string {
	return fmt.Sprintf("tournaments/%s/final.json", tournamentID)
}

// ArchiveFinal uploads the snapshot as JSON and returns where it can be read.
// The returned location is empty when the bucket has no public URL.
func (a *snapshotArchive) ArchiveFinal(ctx context.Context, tournamentID string, snapshot interface{}) (string, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to encode final snapshot of tournament %s: %w", tournamentID, err)
	}
	obj, err := a.objects.Put(ctx, FinalSnapshotKey(tournamentID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return obj.URL, nil
}

func (a *snapshotArchive) Discard(ctx context.Context, tournamentID string) error {
	if err := a.objects.Delete(ctx, FinalSnapshotKey(tournamentID)); err != nil {
		return fmt.Errorf("failed to discard final snapshot of tournament %s: %w", tournamentID, err)
	}
	return nil
}
