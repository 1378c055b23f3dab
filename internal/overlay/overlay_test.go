package overlay

import (
	"testing"
	"time"

	"github.com/frer-max/fassr/internal/api"
	"github.com/frer-max/fassr/internal/kv"
)

func TestRecordCompletion_IsWriteOnce(t *testing.T) {
	o := New(&kv.Memory{}, nil)
	first := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	wrote, err := o.RecordCompletion(7, first)
	if err != nil || !wrote {
		t.Fatalf("first RecordCompletion = %v, %v", wrote, err)
	}
	wrote, err = o.RecordCompletion(7, first.Add(time.Hour))
	if err != nil || wrote {
		t.Fatalf("second RecordCompletion = %v, %v, want no write", wrote, err)
	}
	if at, ok := o.CompletedAt(7); !ok || !at.Equal(first) {
		t.Fatalf("CompletedAt = %v,%v, want first timestamp", at, ok)
	}
}

func TestOverlay_SurvivesRestart(t *testing.T) {
	store := &kv.Memory{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	if _, err := New(store, nil).RecordCompletion(3, at); err != nil {
		t.Fatalf("RecordCompletion returned error: %v", err)
	}

	reloaded := New(store, nil)
	got, ok := reloaded.CompletedAt(3)
	if !ok || !got.Equal(at) {
		t.Fatalf("CompletedAt after restart = %v,%v", got, ok)
	}
	if wrote, _ := reloaded.RecordCompletion(3, at.Add(time.Minute)); wrote {
		t.Fatalf("restart must not reset write-once entries")
	}
}

func TestHydrate(t *testing.T) {
	o := New(nil, nil)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	recorded := created.Add(45 * time.Minute)
	_, _ = o.RecordCompletion(1, recorded)

	server := created.Add(2 * time.Hour)
	tests := []struct {
		name  string
		order api.Order
		want  *time.Time
	}{
		{"overlay entry", api.Order{ID: 1, Status: api.StatusDelivered, CreatedAt: created}, &recorded},
		{"fallback to createdAt", api.Order{ID: 2, Status: api.StatusDelivered, CreatedAt: created}, &created},
		{"not delivered", api.Order{ID: 1, Status: api.StatusReady, CreatedAt: created}, nil},
		{"already set", api.Order{ID: 1, Status: api.StatusDelivered, CreatedAt: created, CompletedAt: &server}, &server},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := o.Hydrate(tt.order).CompletedAt
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("CompletedAt = %v, want nil", *got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Fatalf("CompletedAt = %v, want %v", got, *tt.want)
			}
		})
	}
}

func TestOverlay_CorruptEntryStartsEmpty(t *testing.T) {
	store := &kv.Memory{}
	_ = store.Set(storageKey, "not json")

	o := New(store, nil)
	if _, ok := o.CompletedAt(1); ok {
		t.Fatalf("corrupt overlay should read as empty")
	}
	if wrote, err := o.RecordCompletion(1, time.Now()); err != nil || !wrote {
		t.Fatalf("RecordCompletion after corrupt load = %v, %v", wrote, err)
	}
}
