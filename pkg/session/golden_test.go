package session_test

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-dynform/pkg/session"
	"github.com/goliatone/go-dynform/pkg/testsupport"
)

func TestSession_ViewGolden(t *testing.T) {
	ctx := testsupport.Context()
	cat := testsupport.LoadCatalogue(t, filepath.Join("testdata", "catalogue.yaml"))

	s, err := session.New(ctx, cat)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "variable", "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}

	golden := filepath.Join("testdata", "view_collx.json")
	testsupport.WriteGolden(t, golden, s.View())
	want := testsupport.MustLoadView(t, golden)
	if diff := testsupport.CompareGolden(want, s.View()); diff != "" {
		t.Fatalf("view mismatch (-want +got):\n%s", diff)
	}
}
