package timeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Walk inspects a descriptor the way the engine would traverse it and
// reports authoring problems as warnings: unknown types, references to
// undefined events or missions, events unreachable from the start event, and
// cycles that would recurse without ever yielding to a timer or the user.
func Walk(d *Descriptor) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	defined := make(map[string]bool, len(d.Events))
	for _, ev := range d.Events {
		if defined[ev.Name] {
			warn("event %q is defined more than once", ev.Name)
		}
		defined[ev.Name] = true
		if !ev.Type.Valid() {
			warn("event %q has unknown type %q", ev.Name, ev.Type)
		}
	}

	for _, m := range d.Missions {
		seen := make(map[string]bool, len(m.Artifacts))
		for _, a := range m.Artifacts {
			if seen[a.Name] {
				warn("mission %q declares artifact %q more than once", m.Name, a.Name)
			}
			seen[a.Name] = true
		}
		for _, name := range m.StartEvents {
			if !defined[name] {
				warn("mission %q starts undefined event %q", m.Name, name)
			}
		}
	}

	for _, ev := range d.Events {
		if ev.Type == TypeStartMission {
			var ref MissionRef
			if err := json.Unmarshal(ev.Data, &ref); err == nil {
				if _, _, ok := d.Mission(ref.Name); !ok {
					warn("event %q starts undefined mission %q", ev.Name, ref.Name)
				}
			}
		}
		for _, name := range edges(d, ev) {
			if !defined[name] {
				warn("event %q references undefined event %q", ev.Name, name)
			}
		}
	}

	if !defined[d.Start.InitialEvent] {
		warn("initial event %q is not defined", d.Start.InitialEvent)
	} else {
		reached := reachable(d, d.Start.InitialEvent)
		var unreached []string
		for _, ev := range d.Events {
			if !reached[ev.Name] {
				unreached = append(unreached, ev.Name)
			}
		}
		if len(unreached) > 0 {
			warn("events unreachable from %q: %s", d.Start.InitialEvent, strings.Join(unreached, ", "))
		}
	}

	for _, cycle := range syncCycles(d) {
		warn("synchronous cycle: %s", strings.Join(cycle, " -> "))
	}
	return warnings
}

// edges lists every event name ev can lead to, synchronously or not.
func edges(d *Descriptor, ev Event) []string {
	var out []string
	switch ev.Type {
	case TypeChatActor, TypeInputUser:
		var chat Chat
		if json.Unmarshal(ev.Data, &chat) == nil {
			keys := make([]string, 0, len(chat.Responses))
			for k := range chat.Responses {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				out = append(out, chat.Responses[k]...)
			}
		}
	case TypeChatActorAttachment:
		var att AttachmentChat
		if json.Unmarshal(ev.Data, &att) == nil {
			out = append(out, att.Attachment.OpenEvents()...)
		}
	case TypeListenEvent:
		var listen Listen
		if json.Unmarshal(ev.Data, &listen) == nil {
			out = append(out, listen.Received...)
		}
	case TypeWaitFor:
		var wait WaitFor
		if json.Unmarshal(ev.Data, &wait) == nil {
			out = append(out, wait.Then...)
		}
	}
	return append(out, syncEdges(d, ev)...)
}

// syncEdges lists the events ev dispatches before its own dispatch returns.
func syncEdges(d *Descriptor, ev Event) []string {
	if ev.Type != TypeStartMission {
		return nil
	}
	var ref MissionRef
	if json.Unmarshal(ev.Data, &ref) != nil {
		return nil
	}
	m, _, ok := d.Mission(ref.Name)
	if !ok {
		return nil
	}
	return m.StartEvents
}

func reachable(d *Descriptor, from string) map[string]bool {
	seen := map[string]bool{}
	queue := []string{from}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		ev, ok := d.Event(name)
		if !ok {
			continue
		}
		seen[name] = true
		queue = append(queue, edges(d, ev)...)
	}
	return seen
}

func syncCycles(d *Descriptor) [][]string {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make(map[string]int, len(d.Events))
	var path []string
	var cycles [][]string

	var visit func(name string)
	visit = func(name string) {
		ev, ok := d.Event(name)
		if !ok {
			return
		}
		switch state[name] {
		case onPath:
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			cycles = append(cycles, cycle)
			return
		case done:
			return
		}
		state[name] = onPath
		path = append(path, name)
		for _, next := range syncEdges(d, ev) {
			visit(next)
		}
		path = path[:len(path)-1]
		state[name] = done
	}

	for _, ev := range d.Events {
		visit(ev.Name)
	}
	return cycles
}
