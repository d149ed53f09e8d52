package eventlog

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/timeline"
)

// op encodes one generated log entry: kind selects the entry type and slot
// selects the subject name from a small pool so names collide often.
type op struct {
	Kind int
	Slot int
}

var names = []string{"alpha", "beta", "gamma"}

func genOps() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(op{}), map[string]gopter.Gen{
		"Kind": gen.IntRange(0, 6),
		"Slot": gen.IntRange(0, len(names)-1),
	}))
}

func build(ops []op) []Entry {
	entries := make([]Entry, 0, len(ops))
	for i, o := range ops {
		subject := names[o.Slot]
		var (
			eventType timeline.EventType
			name      string
			data      any
		)
		switch o.Kind {
		case 0:
			eventType, name, data = timeline.TypeListenEvent, fmt.Sprintf("listen-%d", i), timeline.Listen{Name: subject}
		case 1:
			eventType, name, data = timeline.TypeReceiveEvent, subject+"::receive", timeline.NameRef{Name: subject}
		case 2:
			eventType, name, data = timeline.TypeWaitFor, subject, timeline.WaitFor{Timeout: 10}
		case 3:
			eventType, name, data = timeline.TypeWaitForComplete, subject+"::completed", timeline.NameRef{Name: subject}
		case 4:
			eventType, name, data = timeline.TypeStartMission, fmt.Sprintf("start-%d", i), timeline.MissionRef{Name: subject}
		case 5:
			eventType, name, data = timeline.TypeRegisterArtifact, fmt.Sprintf("art-%d", i), timeline.ArtifactRef{Name: subject}
		default:
			eventType, name, data = timeline.TypeChatActor, fmt.Sprintf("chat-%d", i), timeline.Chat{Actor: subject, Message: "m"}
		}
		raw, _ := json.Marshal(data)
		entries = append(entries, Entry{Type: eventType, Name: name, Data: raw})
	}
	return entries
}

func TestDerivedViewsAreDeterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("views of any prefix recompute identically", prop.ForAll(
		func(ops []op, cut int) bool {
			entries := build(ops)
			if len(entries) > 0 {
				entries = entries[:cut%(len(entries)+1)]
			}
			m1, ok1 := ActiveMission(entries)
			m2, ok2 := ActiveMission(entries)
			return m1 == m2 && ok1 == ok2 &&
				reflect.DeepEqual(ArtifactStatus(entries, names), ArtifactStatus(entries, names)) &&
				reflect.DeepEqual(ListeningRegistry(entries), ListeningRegistry(entries)) &&
				reflect.DeepEqual(PendingTimers(entries), PendingTimers(entries)) &&
				reflect.DeepEqual(ChatHistory(entries, "alpha"), ChatHistory(entries, "alpha"))
		},
		genOps(),
		gen.IntRange(0, 1000),
	))
	properties.TestingRun(t)
}

func TestListeningRegistryMatchesLastEntry(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("name is awaited iff its last listen/receive entry is a listen", prop.ForAll(
		func(ops []op) bool {
			entries := build(ops)
			registry := ListeningRegistry(entries)
			for _, name := range names {
				last := ""
				for _, o := range ops {
					if names[o.Slot] != name {
						continue
					}
					switch o.Kind {
					case 0:
						last = "listen"
					case 1:
						last = "receive"
					}
				}
				_, awaited := registry[name]
				if awaited != (last == "listen") {
					return false
				}
			}
			return true
		},
		genOps(),
	))
	properties.TestingRun(t)
}

func TestPendingTimersMatchLastEntry(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("timer is pending iff armed after its last completion", prop.ForAll(
		func(ops []op) bool {
			entries := build(ops)
			pending := PendingTimers(entries)
			for _, name := range names {
				armed := false
				for _, o := range ops {
					if names[o.Slot] != name {
						continue
					}
					switch o.Kind {
					case 2:
						armed = true
					case 3:
						armed = false
					}
				}
				if _, ok := pending[name]; ok != armed {
					return false
				}
			}
			return true
		},
		genOps(),
	))
	properties.TestingRun(t)
}
