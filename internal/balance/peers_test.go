package balance

import "testing"

// recordingHandle captures sent messages for assertions.
type recordingHandle struct {
	sent []Message
	err  error
}

func (h *recordingHandle) Send(msg Message) error {
	h.sent = append(h.sent, msg)
	return h.err
}

func TestRegistry_SelfAlwaysPresent(t *testing.T) {
	r := NewRegistry("self")

	if got, ok := r.Get("self"); !ok || got.State != StateNormal {
		t.Fatalf("Get(self) = %+v, %v; want NORMAL entry", got, ok)
	}

	r.ReplaceGroup([]string{"a", "b"})
	if _, ok := r.Get("self"); !ok {
		t.Error("self evicted by ReplaceGroup")
	}

	r.ReplaceGroup(nil)
	if _, ok := r.Get("self"); !ok {
		t.Error("self evicted by empty ReplaceGroup")
	}
}

func TestRegistry_ReplaceGroup(t *testing.T) {
	r := NewRegistry("self")
	r.Upsert("d", &recordingHandle{})
	r.Reclassify("d", StateDemand)

	r.ReplaceGroup([]string{"a", "c"})

	want := []string{"a", "c", "self"}
	all := r.All()
	if len(all) != len(want) {
		t.Fatalf("registry has %d entries, want %d", len(all), len(want))
	}
	for i, p := range all {
		if p.UUID != want[i] {
			t.Errorf("entry %d = %q, want %q", i, p.UUID, want[i])
		}
	}

	// New roster members start NORMAL.
	for _, uuid := range []string{"a", "c"} {
		if p, _ := r.Get(uuid); p.State != StateNormal {
			t.Errorf("peer %q state = %s, want NORMAL", uuid, p.State)
		}
	}

	if _, ok := r.Get("d"); ok {
		t.Error("peer d should have been evicted")
	}
}

func TestRegistry_ReclassifyAtomic(t *testing.T) {
	r := NewRegistry("self")
	r.Upsert("a", &recordingHandle{})

	r.Reclassify("a", StateDemand)
	r.Reclassify("a", StateSupply)

	// Exactly one bucket holds the peer.
	count := 0
	for _, state := range []LoadState{StateSupply, StateDemand, StateNormal, StateUnknown} {
		for _, p := range r.ByClass(state) {
			if p.UUID == "a" {
				count++
				if state != StateSupply {
					t.Errorf("peer a found in %s bucket", state)
				}
			}
		}
	}
	if count != 1 {
		t.Errorf("peer a occupies %d buckets, want 1", count)
	}
}

func TestRegistry_ReclassifyUnknownUUIDIsNoop(t *testing.T) {
	r := NewRegistry("self")
	r.Reclassify("ghost", StateSupply)

	if _, ok := r.Get("ghost"); ok {
		t.Error("reclassify created an entry for an unknown UUID")
	}
}

func TestRegistry_UpsertIdempotent(t *testing.T) {
	r := NewRegistry("self")

	first := &recordingHandle{}
	second := &recordingHandle{}

	r.Upsert("a", first)
	r.Reclassify("a", StateDemand)
	r.Upsert("a", second)

	if p, _ := r.Get("a"); p.State != StateDemand {
		t.Errorf("upsert reset classification to %s", p.State)
	}
	if r.Handle("a") != PeerHandle(second) {
		t.Error("upsert did not overwrite the handle")
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
}

func TestRegistry_SelfHandleStaysNil(t *testing.T) {
	r := NewRegistry("self")
	r.Upsert("self", &recordingHandle{})

	if r.Handle("self") != nil {
		t.Error("self entry acquired a send handle")
	}
}
