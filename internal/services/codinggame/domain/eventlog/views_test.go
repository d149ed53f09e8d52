package eventlog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

func mk(t *testing.T, eventType timeline.EventType, name string, data any) Entry {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return Entry{Type: eventType, Name: name, Data: raw, Timestamp: time.Unix(0, 0).UTC()}
}

func TestActiveMissionLastWins(t *testing.T) {
	if _, ok := ActiveMission(nil); ok {
		t.Fatal("expected no active mission on empty log")
	}
	entries := []Entry{
		mk(t, timeline.TypeStartMission, "s1", timeline.MissionRef{Name: "m1"}),
		mk(t, timeline.TypeChatActor, "c", timeline.Chat{Actor: "a"}),
		mk(t, timeline.TypeStartMission, "s2", timeline.MissionRef{Name: "m2"}),
	}
	if name, ok := ActiveMission(entries); !ok || name != "m2" {
		t.Fatalf("expected m2, got %q", name)
	}
}

func TestArtifactStatusLatestOccurrence(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeRegisterArtifact, "first", timeline.ArtifactRef{Name: "a"}),
		mk(t, timeline.TypeRegisterArtifact, "other", timeline.ArtifactRef{Name: "z"}),
		mk(t, timeline.TypeRegisterArtifact, "second", timeline.ArtifactRef{Name: "a"}),
	}
	status := ArtifactStatus(entries, []string{"a", "b"})
	if len(status) != 2 {
		t.Fatalf("expected only requested names, got %v", status)
	}
	if status["a"] == nil || status["a"].Name != "second" {
		t.Fatalf("expected latest entry for a, got %v", status["a"])
	}
	if status["b"] != nil {
		t.Fatalf("expected nil for b, got %v", status["b"])
	}
}

func TestEarnedArtifactsUnique(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeRegisterArtifact, "r1", timeline.ArtifactRef{Name: "a"}),
		mk(t, timeline.TypeRegisterArtifact, "r2", timeline.ArtifactRef{Name: "b"}),
		mk(t, timeline.TypeRegisterArtifact, "r3", timeline.ArtifactRef{Name: "a"}),
	}
	earned := EarnedArtifacts(entries)
	if len(earned) != 2 || earned[0].Name != "r1" || earned[1].Name != "r2" {
		t.Fatalf("unexpected earned %v", earned)
	}
}

func TestListeningRegistry(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeListenEvent, "l1", timeline.Listen{Name: "x", Received: []string{"r"}}),
		mk(t, timeline.TypeListenEvent, "l2", timeline.Listen{Name: "y"}),
		mk(t, timeline.TypeReceiveEvent, "l1::receive", timeline.NameRef{Name: "x"}),
		mk(t, timeline.TypeListenEvent, "l3", timeline.Listen{Name: "y", Received: []string{"s"}}),
	}
	registry := ListeningRegistry(entries)
	if _, ok := registry["x"]; ok {
		t.Fatal("expected x to be received")
	}
	y, ok := registry["y"]
	if !ok || y.Event.Name != "l3" || len(y.Received) != 1 {
		t.Fatalf("expected y to map to l3, got %+v", y)
	}
}

func TestPendingTimers(t *testing.T) {
	armed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	w1 := mk(t, timeline.TypeWaitFor, "w1", timeline.WaitFor{Timeout: 100})
	w2 := mk(t, timeline.TypeWaitFor, "w2", timeline.WaitFor{Timeout: 200, Then: []string{"t"}})
	w2.Timestamp = armed
	w3 := mk(t, timeline.TypeWaitFor, "w3", timeline.WaitFor{Timeout: 300})
	entries := []Entry{
		w1, w2, w3,
		mk(t, timeline.TypeWaitForComplete, "w1::completed", timeline.NameRef{Name: "w1"}),
		mk(t, timeline.TypeWaitForCancelled, "w3::cancelled", timeline.NameRef{Name: "w3"}),
	}
	pending := PendingTimers(entries)
	if len(pending) != 1 {
		t.Fatalf("expected one pending timer, got %v", pending)
	}
	p := pending["w2"]
	if !p.ArmedAt.Equal(armed) || p.Wait.Timeout != 200 || p.Wait.Then[0] != "t" {
		t.Fatalf("unexpected pending timer %+v", p)
	}
}

func TestChatHistoryFiltersByActor(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeChatActor, "c1", timeline.Chat{Actor: "ada", Message: "hi"}),
		mk(t, timeline.TypeChatActor, "c2", timeline.Chat{Actor: "bob", Message: "yo"}),
		mk(t, timeline.TypeChatUser, "c1::response", timeline.Chat{Name: "c1", Actor: "ada", Message: "hello"}),
		mk(t, timeline.TypeInputUser, "i1", map[string]any{"actor": "ada", "input": map[string]any{"type": "text"}}),
		mk(t, timeline.TypeChatActorAttachment, "att", timeline.AttachmentChat{Actor: "ada", Attachment: timeline.Attachment{"path": "/f"}}),
		mk(t, timeline.TypeStartMission, "s", timeline.MissionRef{Name: "m"}),
	}
	history := ChatHistory(entries, "ada")
	if len(history) != 4 {
		t.Fatalf("expected 4 records, got %d", len(history))
	}
	if history[1].Name != "c1::response" || history[1].Type != timeline.TypeChatUser || history[1].Message != "hello" {
		t.Fatalf("unexpected user turn %+v", history[1])
	}
	if string(history[2].Input) != `{"type":"text"}` {
		t.Fatalf("unexpected input %s", history[2].Input)
	}
	if history[3].Attachment.Path() != "/f" {
		t.Fatalf("unexpected attachment %v", history[3].Attachment)
	}
}

func TestEventHasOccurred(t *testing.T) {
	entries := []Entry{mk(t, timeline.TypeChatActor, "c1", timeline.Chat{Actor: "a"})}
	if !EventHasOccurred(entries, "c1") || EventHasOccurred(entries, "c2") {
		t.Fatal("unexpected occurrence result")
	}
}

func TestChangedSettingsKeepsFirstPrevious(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeChangeSetting, "s1", timeline.Setting{Schema: "org.a", Key: "k", Value: json.RawMessage(`1`), Previous: json.RawMessage(`0`)}),
		mk(t, timeline.TypeChangeSetting, "s2", timeline.Setting{Schema: "org.a", Key: "k", Value: json.RawMessage(`2`), Previous: json.RawMessage(`1`)}),
		mk(t, timeline.TypeChangeSetting, "s3", timeline.Setting{Schema: "org.b", Key: "k", Value: json.RawMessage(`true`)}),
	}
	changes := ChangedSettings(entries)
	if len(changes) != 2 {
		t.Fatalf("expected two distinct settings, got %v", changes)
	}
	if string(changes[0].Previous) != "0" {
		t.Fatalf("expected original value 0, got %s", changes[0].Previous)
	}
	if changes[1].Previous != nil {
		t.Fatalf("expected no previous for org.b, got %s", changes[1].Previous)
	}
}

func TestReversedEffects(t *testing.T) {
	entries := []Entry{
		mk(t, timeline.TypeCopyFile, "c1", timeline.CopyFile{Source: "a", Target: "/t/a"}),
		mk(t, timeline.TypeModifyAppGrid, "g1", timeline.AppGrid{Action: timeline.AppGridAdd, App: "one"}),
		mk(t, timeline.TypeCopyFile, "c2", timeline.CopyFile{Source: "b", Target: "/t/b"}),
		mk(t, timeline.TypeModifyAppGrid, "g2", timeline.AppGrid{Action: timeline.AppGridRemove, App: "two"}),
	}
	files := CopiedFiles(entries)
	if len(files) != 2 || files[0] != "/t/b" || files[1] != "/t/a" {
		t.Fatalf("unexpected copied files %v", files)
	}
	grid := AppGridModifications(entries)
	if len(grid) != 2 || grid[0].App != "two" || grid[1].App != "one" {
		t.Fatalf("unexpected grid ops %v", grid)
	}
}
