package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/storage"
	"github.com/cwhitt/adventure-engine/pkg/dispatcher"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:           "test",
		TelemetryEnabled:      true,
		TelemetryCollectInput: true,
	}
}

// testWorldDoc is a two-room document with a guarding troll.
const testWorldDoc = `{
	"name": "Test Caves",
	"start_room": "entrance",
	"rooms": [
		{"id": "entrance", "name": "Cave Entrance", "description": "A narrow opening in the rock.", "exits": {"north": "guard-room"}},
		{"id": "guard-room", "name": "Guard Room", "description": "A low room with scratched walls.", "exits": {"south": "entrance"}}
	],
	"objects": [
		{"id": "lamp", "name": "brass lamp", "description": "A battered brass lamp.", "location": "entrance", "visible": true,
		 "properties": {"portable": true, "lightable": true}}
	],
	"actors": [
		{"id": "troll", "name": "troll", "location": "guard-room", "strength": 2, "kind": "troll",
		 "fighting": true, "blocks_passage": true}
	]
}`

func newTestService(t *testing.T) (*GameService, *storage.MockStorage) {
	t.Helper()
	mock := storage.NewMockStorage()
	mock.AddWorld("caves.json", []byte(testWorldDoc))

	svc, err := NewGameService(mock, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("NewGameService() error = %v", err)
	}
	return svc, mock
}

func TestNewEngineBuildsWorld(t *testing.T) {
	svc, _ := newTestService(t)

	e, err := svc.NewEngine(context.Background(), "caves.json", uuid.NewString())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	if room := e.World().CurrentRoom(); room == nil || room.ID != "entrance" {
		t.Errorf("current room = %+v, want entrance", room)
	}
	if _, ok := e.World().Object("lamp"); !ok {
		t.Error("lamp missing from built world")
	}
}

func TestNewEngineRegistersActors(t *testing.T) {
	svc, _ := newTestService(t)

	e, err := svc.NewEngine(context.Background(), "caves.json", uuid.NewString())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	troll, ok := e.Actors().Get("troll")
	if !ok {
		t.Fatal("troll not registered")
	}
	if !troll.BlocksPassage {
		t.Error("troll should block passage")
	}
	if troll.Strength != 2 {
		t.Errorf("troll.Strength = %d, want 2", troll.Strength)
	}
}

func TestNewEngineUnknownWorld(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.NewEngine(context.Background(), "missing.json", uuid.NewString()); err == nil {
		t.Error("NewEngine() expected error for missing world, got nil")
	}
}

func TestNewEngineUnknownActorKind(t *testing.T) {
	mock := storage.NewMockStorage()
	doc := `{
		"start_room": "r",
		"rooms": [{"id": "r", "name": "Room", "description": "d", "exits": {}}],
		"actors": [{"id": "ghost", "name": "ghost", "location": "r", "strength": 1, "kind": "ghost"}]
	}`
	mock.AddWorld("bad.json", []byte(doc))

	svc, err := NewGameService(mock, testConfig(), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.NewEngine(context.Background(), "bad.json", uuid.NewString()); err == nil {
		t.Error("NewEngine() expected error for unknown actor kind, got nil")
	}
}

func TestRestoreEngineAppliesSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	id := uuid.New()

	e, err := svc.NewEngine(ctx, "caves.json", id.String())
	if err != nil {
		t.Fatal(err)
	}

	report := e.ExecuteLine(ctx, "take lamp", dispatcher.PolicyFailEarly)
	if !report.OverallSuccess {
		t.Fatalf("take lamp failed: %+v", report)
	}

	snap, err := json.Marshal(e.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	session := &storage.Session{
		ID:        id,
		WorldFile: "caves.json",
		CreatedAt: time.Now(),
		Snapshot:  snap,
	}

	restored, err := svc.RestoreEngine(ctx, session)
	if err != nil {
		t.Fatalf("RestoreEngine() error = %v", err)
	}
	if !restored.World().Player.Has("lamp") {
		t.Error("restored engine should have the lamp in inventory")
	}
	if restored.World().Player.Moves != 1 {
		t.Errorf("restored moves = %d, want 1", restored.World().Player.Moves)
	}
}

func TestRestoreEngineWithoutSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	id := uuid.New()

	session := &storage.Session{ID: id, WorldFile: "caves.json"}
	e, err := svc.RestoreEngine(context.Background(), session)
	if err != nil {
		t.Fatalf("RestoreEngine() error = %v", err)
	}
	if room := e.World().CurrentRoom(); room == nil || room.ID != "entrance" {
		t.Errorf("current room = %+v, want entrance", room)
	}
}
