package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
	"github.com/louisbranch/codinggame/internal/services/codinggame/effects"
)

const testTimeline = `{
  "events": [
    {"name": "e1", "type": "start-mission", "data": {"name": "m1"}},
    {"name": "e2", "type": "start-mission", "data": {"name": "m2"}},
    {"name": "hello", "type": "chat-actor", "data": {"actor": "ada", "message": "hi", "styles": ["bold"], "responses": {"ok": ["ack"], "no": ["sad"]}}},
    {"name": "ack", "type": "chat-actor", "data": {"actor": "ada", "message": "great"}},
    {"name": "sad", "type": "chat-actor", "data": {"actor": "ada", "message": ":("}},
    {"name": "listen", "type": "listen-event", "data": {"name": "app-opened", "received": ["opened-chat", "art-a"]}},
    {"name": "opened-chat", "type": "chat-actor", "data": {"actor": "ada", "message": "you opened it"}},
    {"name": "art-a", "type": "register-artifact", "data": {"name": "a"}},
    {"name": "art-b", "type": "register-artifact", "data": {"name": "b"}},
    {"name": "wait", "type": "wait-for", "data": {"timeout": 1000, "then": ["later"]}},
    {"name": "wait2", "type": "wait-for", "data": {"timeout": 5000, "then": ["later"]}},
    {"name": "later", "type": "chat-actor", "data": {"actor": "ada", "message": "later"}},
    {"name": "bg", "type": "change-setting", "data": {"schema": "org.gnome.desktop.background", "key": "picture-uri", "value": {"type": "internal-file-uri", "value": "bg.png"}, "variant_type": "s"}},
    {"name": "favs", "type": "change-setting", "data": {"schema": "org.gnome.shell", "key": "favorite-apps", "value": {"type": "append-to-list-unique", "value": ["hack.desktop", "a.desktop"]}, "variant_type": "as"}},
    {"name": "dark", "type": "change-setting", "data": {"schema": "org.gnome.desktop.interface", "key": "dark", "value": true, "variant_type": "b"}},
    {"name": "badsetting", "type": "change-setting", "data": {"schema": "org.gnome.shell", "key": "x", "value": {"type": "mystery", "value": 1}}},
    {"name": "copy", "type": "copy-file", "data": {"source": "a.txt", "target": "/tmp/game/a.txt"}},
    {"name": "grid-add", "type": "modify-app-grid", "data": {"action": "add-app", "app": "com.endlessm.Hack"}},
    {"name": "grid-remove", "type": "modify-app-grid", "data": {"action": "remove-app", "app": "org.gnome.Maps"}},
    {"name": "grid-bad", "type": "modify-app-grid", "data": {"action": "explode", "app": "x"}},
    {"name": "doc", "type": "chat-actor-attachment", "data": {"actor": "ada", "attachment": {"path": "docs/readme.txt", "title": "Readme", "open_event": ["opened-doc"]}}},
    {"name": "opened-doc", "type": "chat-actor", "data": {"actor": "ada", "message": "reading?"}},
    {"name": "desk", "type": "chat-actor-desktop-attachment", "data": {"actor": "ada", "attachment": {"app": "org.gnome.Gedit"}}},
    {"name": "ask", "type": "input-user", "data": {"actor": "ada", "input": {"type": "text"}, "responses": {"any": ["ack"]}}},
    {"name": "quick", "type": "wait-for", "data": {"timeout": 5, "then": ["later"]}},
    {"name": "broken", "type": "wait-for", "data": {"timeout": 10, "then": ["ghost"]}}
  ],
  "missions": [
    {"name": "m1", "short_desc": "First", "long_desc": "The first mission", "hint": "say hi",
     "start_events": ["hello", "listen"],
     "artifacts": [{"name": "a", "points": 10}, {"name": "b", "points": 5}]},
    {"name": "m2", "short_desc": "Second", "long_desc": "The second mission",
     "start_events": ["wait2"],
     "artifacts": [{"name": "c", "points": 7}]}
  ],
  "start": {"initial_event": "e1"}
}`

type memStore struct {
	entries []eventlog.Entry
	saves   [][]eventlog.Entry
	resets  int
}

func (s *memStore) Load(context.Context) ([]eventlog.Entry, error) {
	return append([]eventlog.Entry(nil), s.entries...), nil
}

func (s *memStore) Save(_ context.Context, entries []eventlog.Entry) error {
	s.entries = append([]eventlog.Entry(nil), entries...)
	s.saves = append(s.saves, s.entries)
	return nil
}

func (s *memStore) Reset(context.Context) error {
	s.entries = nil
	s.resets++
	return nil
}

type fakeChat struct {
	sent []effects.ChatMessage
}

func (c *fakeChat) SendChatMessage(_ context.Context, msg effects.ChatMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

type settingKey struct{ schema, key string }

type fakeSettings struct {
	values  map[settingKey]json.RawMessage
	resets  []string
	readErr error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{values: map[settingKey]json.RawMessage{}}
}

func (s *fakeSettings) Setting(_ context.Context, schema, key string) (json.RawMessage, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	if v, ok := s.values[settingKey{schema, key}]; ok {
		return v, nil
	}
	return json.RawMessage("null"), nil
}

func (s *fakeSettings) SetSetting(_ context.Context, schema, key string, value json.RawMessage) error {
	s.values[settingKey{schema, key}] = value
	return nil
}

func (s *fakeSettings) ResetSetting(_ context.Context, schema, key string) error {
	delete(s.values, settingKey{schema, key})
	s.resets = append(s.resets, schema+"/"+key)
	return nil
}

type fakeGrid struct {
	ops []string
}

func (g *fakeGrid) AddApplication(_ context.Context, app string) error {
	g.ops = append(g.ops, "add:"+app)
	return nil
}

func (g *fakeGrid) RemoveApplication(_ context.Context, app string) error {
	g.ops = append(g.ops, "remove:"+app)
	return nil
}

type fakeFiles struct {
	copies  [][2]string
	removed []string
	copyErr error
}

func (f *fakeFiles) Copy(_ context.Context, source, target string) error {
	f.copies = append(f.copies, [2]string{source, target})
	return f.copyErr
}

func (f *fakeFiles) Remove(_ context.Context, path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeDesktop struct {
	err error
}

func (d fakeDesktop) DesktopFile(app string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	if app == "" {
		return "", errors.New("no app")
	}
	return "/usr/share/applications/" + app + ".desktop", nil
}

type scheduled struct {
	d    time.Duration
	fire func()
}

// manualScheduler records timers and fires them on demand.
type manualScheduler struct {
	timers    map[string]scheduled
	cancelled []string
	cancelAll int
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{timers: map[string]scheduled{}}
}

func (s *manualScheduler) Schedule(name string, d time.Duration, fire func()) {
	s.timers[name] = scheduled{d: d, fire: fire}
}

func (s *manualScheduler) Cancel(name string) error {
	if _, ok := s.timers[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNoTimer, name)
	}
	delete(s.timers, name)
	s.cancelled = append(s.cancelled, name)
	return nil
}

func (s *manualScheduler) CancelAll() {
	s.cancelAll++
	s.timers = map[string]scheduled{}
}

func (s *manualScheduler) fire(t *testing.T, name string) {
	t.Helper()
	timer, ok := s.timers[name]
	if !ok {
		t.Fatalf("no timer %q armed", name)
	}
	delete(s.timers, name)
	timer.fire()
}

type harness struct {
	engine    *Engine
	store     *memStore
	chat      *fakeChat
	settings  *fakeSettings
	grid      *fakeGrid
	files     *fakeFiles
	scheduler *manualScheduler
	published []Snapshot
	now       time.Time
}

type harnessOption func(*harness, *Deps)

func withDebug() harnessOption {
	return func(_ *harness, d *Deps) { d.DebugEnabled = true }
}

func withStore(store *memStore) harnessOption {
	return func(h *harness, _ *Deps) { h.store = store }
}

func withScheduler(s Scheduler) harnessOption {
	return func(_ *harness, d *Deps) { d.Scheduler = s }
}

func withDesktop(d fakeDesktop) harnessOption {
	return func(_ *harness, deps *Deps) { deps.Desktop = d }
}

func withNow(now time.Time) harnessOption {
	return func(h *harness, _ *Deps) { h.now = now }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	desc, err := timeline.Parse("timeline.json", []byte(testTimeline))
	if err != nil {
		t.Fatalf("parse timeline: %v", err)
	}
	h := &harness{
		store:     &memStore{},
		chat:      &fakeChat{},
		settings:  newFakeSettings(),
		grid:      &fakeGrid{},
		files:     &fakeFiles{},
		scheduler: newManualScheduler(),
		now:       time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	deps := Deps{
		Descriptor: desc,
		Scheduler:  h.scheduler,
		Chat:       h.chat,
		Settings:   h.settings,
		AppGrid:    h.grid,
		Desktop:    fakeDesktop{},
		Files:      h.files,
		Publisher:  PublisherFunc(func(s Snapshot) { h.published = append(h.published, s) }),
		FilesDir:   "/usr/share/coding-game-service/files",
		ConfigDir:  "/home/player/.config/com.endlessm.CodingGameService",
		HomeDir:    "/home/player",
	}
	for _, opt := range opts {
		opt(h, &deps)
	}
	clock := func() time.Time { return h.now }
	deps.Now = clock

	l, err := eventlog.Open(context.Background(), h.store, clock)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	deps.Log = l
	e, err := New(deps)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	h.engine = e
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

func (h *harness) names() []string {
	entries := h.engine.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func (h *harness) entry(t *testing.T, name string) eventlog.Entry {
	t.Helper()
	for _, e := range h.engine.Entries() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no entry %q in %v", name, h.names())
	return eventlog.Entry{}
}

func (h *harness) mustDispatch(t *testing.T, name string) {
	t.Helper()
	if err := h.engine.DispatchEventByName(context.Background(), name); err != nil {
		t.Fatalf("dispatch %s: %v", name, err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
