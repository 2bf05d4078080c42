package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/propagation"
	"github.com/goliatone/go-dynform/pkg/request"
	"github.com/goliatone/go-dynform/pkg/schema"
	"github.com/goliatone/go-dynform/pkg/session"
)

func scenarioCatalogue(t *testing.T, extra ...catalogue.Collection) *catalogue.Memory {
	t.Helper()

	x, err := catalogue.NewCollection("collX", "Collection X", []schema.RawField{
		{Name: "variable", Type: "StringListWidget", Label: "Variable", Details: schema.RawDetails{
			Values: schema.StringList{"temp", "precip"},
			Labels: schema.LabelMap{"temp": "Temperature"},
		}},
		{Name: "year", Type: "StringChoiceWidget", Details: schema.RawDetails{
			Values:  schema.StringList{"2020", "2021"},
			Default: schema.StringList{"2021"},
		}},
		{Name: "download_format", Type: "StringChoiceWidget", Details: schema.RawDetails{Values: schema.StringList{"zip"}}},
		{Name: "year", Type: "StringListWidget"},
	}, catalogue.WithCombinations(
		catalogue.Combination{"variable": {"temp"}, "year": {"2021"}},
		catalogue.Combination{"variable": {"precip"}, "year": {"2020", "2021"}},
	))
	if err != nil {
		t.Fatalf("collection: %v", err)
	}

	y, err := catalogue.NewCollection("collY", "", []schema.RawField{
		{Name: "month", Type: "StringListArrayWidget", Details: schema.RawDetails{Values: schema.StringList{"01", "02"}}},
	})
	if err != nil {
		t.Fatalf("collection: %v", err)
	}

	cat, err := catalogue.NewMemory(append([]catalogue.Collection{x, y}, extra...)...)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	return cat
}

func TestSession_Scenario(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if s.CollectionID() != "collX" {
		t.Fatalf("initial collection = %q", s.CollectionID())
	}
	if diff := cmp.Diff([]string{"variable", "year"}, s.Form().Fields.Names()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(s.Diagnostics()) != 1 || !s.Diagnostics()[0].IsDuplicate() {
		t.Fatalf("expected duplicate diagnostic, got %v", s.Diagnostics())
	}

	if err := s.Set(ctx, "variable", "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	year, _ := s.Field("year")
	if diff := cmp.Diff([]string{"2021"}, year.State.Allowed); diff != "" {
		t.Fatalf("year allowed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2021"}, year.State.Selection); diff != "" {
		t.Fatalf("year selection mismatch (-want +got):\n%s", diff)
	}

	id, req := request.Extract(s)
	if id != "collX" {
		t.Fatalf("collection id = %q", id)
	}
	want := request.Request{"variable": "temp", "year": "2021"}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SelectRebuildsWithoutCarryOver(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "variable", "precip"); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := s.Select(ctx, "collY"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if diff := cmp.Diff([]string{"month"}, s.Form().Fields.Names()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if s.Form().Title != "collY" {
		t.Fatalf("title should fall back to id, got %q", s.Form().Title)
	}

	if err := s.Select(ctx, "collX"); err != nil {
		t.Fatalf("select: %v", err)
	}
	want := catalogue.Selection{"year": {"2021"}}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Fatalf("selection carried over (-want +got):\n%s", diff)
	}
}

func TestSession_SelectFailureKeepsPreviousForm(t *testing.T) {
	boom := errors.New("constraint service down")
	broken, err := catalogue.NewCollection("broken", "", []schema.RawField{
		{Name: "a", Type: "StringListWidget", Details: schema.RawDetails{Values: schema.StringList{"x"}}},
	}, catalogue.WithConstraintFunc(func(context.Context, catalogue.Selection) (catalogue.Constraints, error) {
		return nil, boom
	}))
	if err != nil {
		t.Fatalf("collection: %v", err)
	}

	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t, broken))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	before := s.View()

	if err := s.Select(ctx, "broken"); !errors.Is(err, boom) {
		t.Fatalf("expected constraint failure, got %v", err)
	}
	if err := s.Select(ctx, "missing"); !errors.Is(err, catalogue.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if diff := cmp.Diff(before, s.View()); diff != "" {
		t.Fatalf("failed select changed the form (-before +after):\n%s", diff)
	}
}

func TestSession_NoCollection(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t), session.WithInitialCollection(session.NoCollection))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !s.Form().Empty() || s.CollectionID() != session.NoCollection {
		t.Fatalf("expected empty form, got %+v", s.Form())
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty snapshot")
	}

	view := s.View()
	want := []session.CollectionView{
		{ID: session.NoCollection, Title: "None", Selected: true},
		{ID: "collX", Title: "Collection X"},
		{ID: "collY", Title: "collY"},
	}
	if diff := cmp.Diff(want, view.Collections); diff != "" {
		t.Fatalf("collections mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SurfaceAndView(t *testing.T) {
	var views []session.View
	surface := session.SurfaceFunc(func(_ context.Context, v session.View) error {
		views = append(views, v)
		return nil
	})

	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t), session.WithSurface(surface))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Set(ctx, "variable", "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("surface saw %d views, want 2", len(views))
	}

	variable, ok := views[1].Field("variable")
	if !ok {
		t.Fatalf("variable missing from view")
	}
	want := session.FieldView{
		Name:  "variable",
		Kind:  schema.KindMultiSelect,
		Title: "Variable",
		Options: []session.OptionView{
			{Value: "temp", Label: "Temperature", Selected: true},
			{Value: "precip", Label: "precip"},
		},
		Selected: []string{"temp"},
	}
	if diff := cmp.Diff(want, variable); diff != "" {
		t.Fatalf("field view mismatch (-want +got):\n%s", diff)
	}
	if !variable.Multiple() {
		t.Fatalf("multi-select should allow multiple values")
	}
	year, _ := views[1].Field("year")
	if year.Multiple() {
		t.Fatalf("single-select should not allow multiple values")
	}
}

func TestSession_ExtractDuringSelect(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ids := []string{"collY", "collX"}
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if err := s.Select(ctx, ids[i%2]); err != nil {
				t.Errorf("select: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 500; i++ {
		id, req := request.Extract(s)
		_, hasYear := req["year"]
		switch id {
		case "collX":
			if !hasYear {
				t.Errorf("collX request without its year default: %v", req)
			}
		case "collY":
			if hasYear {
				t.Errorf("collY request carries a collX field: %v", req)
			}
		default:
			t.Errorf("unexpected collection %q", id)
		}
	}
	close(done)
	wg.Wait()
}

func TestSession_QueuedSetShowsOnce(t *testing.T) {
	var views []session.View
	surface := session.SurfaceFunc(func(_ context.Context, v session.View) error {
		views = append(views, v)
		return nil
	})

	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t), session.WithSurface(surface))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var once sync.Once
	var nested error
	stop := s.Observe(func(ev propagation.Event) {
		if ev.Type != propagation.CycleDone {
			return
		}
		once.Do(func() {
			nested = s.Set(ctx, "variable", "precip")
		})
	})
	defer stop()

	if err := s.Set(ctx, "variable", "temp"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if nested != nil {
		t.Fatalf("queued set: %v", nested)
	}
	if len(views) != 2 {
		t.Fatalf("surface saw %d views, want 2", len(views))
	}
	variable, _ := views[1].Field("variable")
	if diff := cmp.Diff([]string{"precip"}, variable.Selected); diff != "" {
		t.Fatalf("last view misses the queued change (-want +got):\n%s", diff)
	}
	year, _ := views[1].Field("year")
	if len(year.Options) != 2 {
		t.Fatalf("year options = %+v, want both years after precip", year.Options)
	}
}

func TestSession_SetOnReplacedForm(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	old := s.Engine()
	if err := s.SetOn(ctx, old, "variable", "temp"); err != nil {
		t.Fatalf("set on current form: %v", err)
	}

	if err := s.Select(ctx, "collX"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := s.SetOn(ctx, old, "variable", "precip"); !errors.Is(err, session.ErrStaleField) {
		t.Fatalf("expected ErrStaleField, got %v", err)
	}
	if err := s.ToggleOn(ctx, old, "variable", "precip"); !errors.Is(err, session.ErrStaleField) {
		t.Fatalf("expected ErrStaleField from toggle, got %v", err)
	}
	if v, _ := s.Field("variable"); len(v.State.Selection) != 0 {
		t.Fatalf("rebuilt form changed through old engine: %v", v.State.Selection)
	}
}

func TestSession_Toggle(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, scenarioCatalogue(t), session.WithInitialCollection("collY"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, v := range []string{"02", "01", "02"} {
		if err := s.Toggle(ctx, "month", v); err != nil {
			t.Fatalf("toggle %s: %v", v, err)
		}
	}
	month, _ := s.Field("month")
	if diff := cmp.Diff([]string{"01"}, month.State.Selection); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}

	if err := s.Toggle(ctx, "nope", "x"); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := session.New(context.Background(), nil); !errors.Is(err, session.ErrNoCatalogue) {
		t.Fatalf("expected ErrNoCatalogue, got %v", err)
	}
	if _, err := session.New(context.Background(), scenarioCatalogue(t), session.WithInitialCollection("zzz")); err == nil {
		t.Fatalf("expected error for unknown initial collection")
	}
}
