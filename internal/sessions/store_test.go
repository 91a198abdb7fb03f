package sessions

import (
	"fmt"
	"testing"

	"github.com/ShipCreekGroup/email-parser/internal/emails"
)

func TestStore_PutAndGet(t *testing.T) {
	s := NewStore()

	id := s.Put(emails.Collection{{Sender: "alice@x.com"}})
	if id == "" {
		t.Fatal("expected a session ID")
	}

	r, ok := s.Get(id)
	if !ok {
		t.Fatal("expected stored result")
	}
	if len(r.Emails) != 1 || r.Emails[0].Sender != "alice@x.com" {
		t.Errorf("unexpected result: %+v", r.Emails)
	}

	if _, ok := s.Get("nonexistent"); ok {
		t.Error("expected miss for unknown ID")
	}
}

func TestStore_EvictsOldest(t *testing.T) {
	s := NewStore()

	var first string
	for i := 0; i < maxEntries+1; i++ {
		id := s.Put(emails.Collection{{Subject: fmt.Sprintf("email %d", i)}})
		if i == 0 {
			first = id
		}
	}

	if s.Len() != maxEntries {
		t.Fatalf("expected %d entries, got %d", maxEntries, s.Len())
	}
	if _, ok := s.Get(first); ok {
		t.Error("expected oldest entry evicted")
	}
}

func TestStore_ClonesCollection(t *testing.T) {
	c := emails.Collection{{Sender: "alice@x.com"}}
	s := NewStore()
	id := s.Put(c)

	c[0].Sender = "mallory@z.com"

	r, _ := s.Get(id)
	if r.Emails[0].Sender != "alice@x.com" {
		t.Error("stored result must not alias the caller's slice")
	}
}
