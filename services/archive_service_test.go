package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/tichu-tools/pairs-server/boards"
	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/storage"
)

type fakeUploader struct {
	objects map[string][]byte
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestArchiveFinalResults(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	uploader := &fakeUploader{}
	svc := NewArchiveService(env.tournaments, env.movementSvc, env.scoreSvc, uploader, testLogger())
	ctx := context.Background()

	if _, err := svc.ArchiveFinalResults(ctx, env.tournament.ID, Credential{PairCode: "CODE1"}); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("pair archived results: %+v", err)
	}

	url, err := svc.ArchiveFinalResults(ctx, env.tournament.ID, Credential{UserID: 1})
	if err != nil {
		t.Fatalf("ArchiveFinalResults: %+v", err)
	}
	if url == "" {
		t.Fatalf("no archive URL returned")
	}

	data, ok := uploader.objects["tournaments/1/final-results.json"]
	if !ok {
		t.Fatalf("archive not uploaded, objects: %v", uploader.objects)
	}
	var results FinalResults
	if err := json.Unmarshal(data, &results); err != nil {
		t.Fatalf("archive is not valid JSON: %+v", err)
	}
	if results.TournamentID != env.tournament.ID || len(results.Pairs) != 8 {
		t.Fatalf("archived results = %+v", results)
	}
}

func TestDealBoards(t *testing.T) {
	env := newScoreEnv(t, models.LockStateUnlocked, false)
	uploader := &fakeUploader{}
	svc := NewArchiveService(env.tournaments, env.movementSvc, env.scoreSvc, uploader, testLogger())
	ctx := context.Background()

	if _, _, err := svc.DealBoards(ctx, env.tournament.ID, Credential{PairCode: "CODE1"}); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("pair dealt boards: %+v", err)
	}

	deals, url, err := svc.DealBoards(ctx, env.tournament.ID, Credential{UserID: 1})
	if err != nil {
		t.Fatalf("DealBoards: %+v", err)
	}
	if len(deals) != 10 {
		t.Fatalf("dealt %d boards, want 10", len(deals))
	}
	if url == "" {
		t.Fatalf("no archive URL returned")
	}

	data, ok := uploader.objects["tournaments/1/deals.json"]
	if !ok {
		t.Fatalf("deals not uploaded")
	}
	var decoded []boards.Deal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("deal archive is not valid JSON: %+v", err)
	}
	if len(decoded) != 10 || len(decoded[0].Cards) != boards.DeckSize {
		t.Fatalf("archived deals malformed")
	}
}
