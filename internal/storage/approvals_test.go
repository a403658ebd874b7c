package storage_test

import (
	"testing"

	"blocknotes/internal/storage"
)

func TestApprovalStore_Lifecycle(t *testing.T) {
	s := storage.NewApprovalStore(openTestDB(t))

	if err := s.Create(storage.Approval{ID: "a1", Tool: "delete_note", Description: "Delete note 3"}); err != nil {
		t.Fatal(err)
	}
	pending, err := s.Pending()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Tool != "delete_note" || pending[0].Metadata != "{}" {
		t.Fatalf("pending = %+v", pending)
	}

	if err := s.Resolve("a1", true); err != nil {
		t.Fatal(err)
	}
	if status, _ := s.Status("a1"); status != storage.ApprovalApproved {
		t.Fatalf("status = %q", status)
	}
	// A second decision does not overwrite the first.
	if err := s.Resolve("a1", false); err != nil {
		t.Fatal(err)
	}
	if status, _ := s.Status("a1"); status != storage.ApprovalApproved {
		t.Fatalf("status after second resolve = %q", status)
	}
	if pending, _ := s.Pending(); len(pending) != 0 {
		t.Fatalf("expected no pending approvals, got %d", len(pending))
	}

	if err := s.Delete("a1"); err != nil {
		t.Fatal(err)
	}
	if status, err := s.Status("a1"); err != nil || status != "" {
		t.Fatalf("status after delete = %q, %v", status, err)
	}
}
