package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/pratik-mahalle/bizrec/internal/pkg/errors"
	"github.com/pratik-mahalle/bizrec/internal/pkg/logger"
	"github.com/pratik-mahalle/bizrec/internal/testutil"
	"github.com/pratik-mahalle/bizrec/pkg/client"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func findBusiness(list []client.Business, id string) (client.Business, bool) {
	for _, b := range list {
		if b.ID.String() == id {
			return b, true
		}
	}
	return client.Business{}, false
}

func TestBusinessRepository_Create(t *testing.T) {
	tests := []struct {
		name     string
		draft    client.BusinessDraft
		failWith error
		wantErr  bool
		wantCode string
	}{
		{
			name:  "create business",
			draft: client.BusinessDraft{Name: "Acme", Industry: "Retail", ContactEmail: "ops@acme.test"},
		},
		{
			name:     "service rejects payload",
			draft:    client.BusinessDraft{Name: "Acme", ContactEmail: "not-an-email"},
			failWith: testutil.Unprocessable("contact_email is invalid"),
			wantErr:  true,
			wantCode: apperrors.ErrCodeValidation,
		},
		{
			name:     "transport failure",
			draft:    client.BusinessDraft{Name: "Acme"},
			failWith: errors.New("connection refused"),
			wantErr:  true,
			wantCode: apperrors.ErrCodeNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeService()
			fake.Fail(testutil.OpCreate, tt.failWith)
			repo := NewBusinessRepository(fake, newTestLogger())
			ctx := context.Background()

			created, st := repo.Create(ctx, tt.draft)
			if st.OK == tt.wantErr {
				t.Fatalf("Create() status = %v, wantErr %v", st, tt.wantErr)
			}

			if tt.wantErr {
				if st.Code() != tt.wantCode {
					t.Errorf("Create() code = %q, want %q", st.Code(), tt.wantCode)
				}
				if fake.Calls(testutil.OpList) != 0 {
					t.Error("Create() refreshed the list after a failure")
				}
				if len(repo.Businesses()) != 0 {
					t.Error("failed create left an entity in the cache")
				}
				return
			}

			if created == nil || created.ID == "" {
				t.Fatal("Create() returned no server-assigned id")
			}
			if fake.Calls(testutil.OpList) != 1 {
				t.Errorf("list calls = %d, want 1 refresh", fake.Calls(testutil.OpList))
			}

			list, st := repo.List(ctx)
			if !st.OK {
				t.Fatalf("List() status = %v", st)
			}
			got, ok := findBusiness(list, created.ID.String())
			if !ok {
				t.Fatalf("List() does not contain created id %s", created.ID)
			}
			if got.Draft() != tt.draft {
				t.Errorf("List() fields = %+v, want %+v", got.Draft(), tt.draft)
			}
		})
	}
}

func TestBusinessRepository_Update(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.Seed(client.BusinessDraft{Name: "Old", Industry: "Food", ContactEmail: "old@test"})
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		draft    client.BusinessDraft
		wantErr  bool
		wantCode string
	}{
		{
			name:  "replace all fields",
			id:    id,
			draft: client.BusinessDraft{Name: "New", Industry: "Books", ContactEmail: "new@test"},
		},
		{
			name:     "unknown business",
			id:       "999",
			draft:    client.BusinessDraft{Name: "Ghost"},
			wantErr:  true,
			wantCode: apperrors.ErrCodeNetwork,
		},
		{
			name:     "empty id",
			id:       "",
			draft:    client.BusinessDraft{Name: "Nobody"},
			wantErr:  true,
			wantCode: apperrors.ErrCodePrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, st := repo.Update(ctx, tt.id, tt.draft)
			if st.OK == tt.wantErr {
				t.Fatalf("Update() status = %v, wantErr %v", st, tt.wantErr)
			}
			if tt.wantErr {
				if st.Code() != tt.wantCode {
					t.Errorf("Update() code = %q, want %q", st.Code(), tt.wantCode)
				}
				return
			}

			if updated.ID.String() != tt.id {
				t.Errorf("Update() id = %s, want %s", updated.ID, tt.id)
			}
			got, ok := findBusiness(repo.Businesses(), tt.id)
			if !ok {
				t.Fatal("updated business missing from cache")
			}
			if got.Draft() != tt.draft {
				t.Errorf("cached fields = %+v, want %+v", got.Draft(), tt.draft)
			}
		})
	}
}

func TestBusinessRepository_Delete(t *testing.T) {
	fake := testutil.NewFakeService()
	keep := fake.Seed(client.BusinessDraft{Name: "Keep"})
	drop := fake.Seed(client.BusinessDraft{Name: "Drop"})
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	if st := repo.Delete(ctx, drop); !st.OK {
		t.Fatalf("Delete() status = %v", st)
	}

	list, st := repo.List(ctx)
	if !st.OK {
		t.Fatalf("List() status = %v", st)
	}
	if _, ok := findBusiness(list, drop); ok {
		t.Errorf("List() still contains deleted id %s", drop)
	}
	if _, ok := findBusiness(list, keep); !ok {
		t.Errorf("List() lost id %s", keep)
	}

	if st := repo.Delete(ctx, drop); st.OK {
		t.Error("Delete() of a missing business succeeded")
	}
}

func TestBusinessRepository_ListKeepsServiceOrder(t *testing.T) {
	fake := testutil.NewFakeService()
	names := []string{"Zeta", "Alpha", "Mu"}
	for _, n := range names {
		fake.Seed(client.BusinessDraft{Name: n})
	}
	repo := NewBusinessRepository(fake, newTestLogger())

	list, st := repo.List(context.Background())
	if !st.OK {
		t.Fatalf("List() status = %v", st)
	}
	if len(list) != len(names) {
		t.Fatalf("List() returned %d businesses, want %d", len(list), len(names))
	}
	for i, n := range names {
		if list[i].Name != n {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].Name, n)
		}
	}
}

func TestBusinessRepository_FailedListKeepsCache(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Seed(client.BusinessDraft{Name: "Acme"})
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	if _, st := repo.List(ctx); !st.OK {
		t.Fatalf("List() status = %v", st)
	}

	fake.Fail(testutil.OpList, errors.New("connection reset"))
	if _, st := repo.List(ctx); st.OK || st.Code() != apperrors.ErrCodeNetwork {
		t.Fatalf("List() status = %v, want network failure", st)
	}
	if len(repo.Businesses()) != 1 {
		t.Errorf("cache size = %d, want 1", len(repo.Businesses()))
	}
}

func TestBusinessRepository_RefreshFailureFailsMutation(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Fail(testutil.OpList, errors.New("connection reset"))
	repo := NewBusinessRepository(fake, newTestLogger())

	_, st := repo.Create(context.Background(), client.BusinessDraft{Name: "Acme"})
	if st.OK {
		t.Fatal("Create() succeeded although the refresh failed")
	}
	if fake.Calls(testutil.OpCreate) != 1 {
		t.Errorf("create calls = %d, want 1", fake.Calls(testutil.OpCreate))
	}
	if len(repo.Businesses()) != 0 {
		t.Error("entity shown before a successful list")
	}
}

func TestBusinessRepository_OutOfOrderListIsFenced(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Seed(client.BusinessDraft{Name: "First"})
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	// The first list sees one business but arrives last.
	gate := fake.Hold(testutil.OpList)
	stale := make(chan Status, 1)
	go func() {
		_, st := repo.List(ctx)
		stale <- st
	}()
	<-gate.Entered()

	fake.Seed(client.BusinessDraft{Name: "Second"})
	fresh, st := repo.List(ctx)
	if !st.OK || len(fresh) != 2 {
		t.Fatalf("second List() = %d businesses, status %v", len(fresh), st)
	}

	gate.Release()
	late := <-stale
	if late.OK || !late.Superseded() {
		t.Fatalf("late List() status = %v, want superseded", late)
	}

	if got := repo.Businesses(); len(got) != 2 {
		t.Errorf("cache has %d businesses, want 2 from the latest list", len(got))
	}
	if !repo.LastStatus().OK {
		t.Errorf("LastStatus() = %v, want the latest list outcome", repo.LastStatus())
	}
}

func TestBusinessRepository_ConcurrentMutationRejected(t *testing.T) {
	fake := testutil.NewFakeService()
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	gate := fake.Hold(testutil.OpCreate)
	first := make(chan Status, 1)
	go func() {
		_, st := repo.Create(ctx, client.BusinessDraft{Name: "One"})
		first <- st
	}()
	<-gate.Entered()

	if !repo.Mutating() {
		t.Error("Mutating() = false while a create is in flight")
	}

	_, st := repo.Create(ctx, client.BusinessDraft{Name: "Two"})
	if st.OK || !errors.Is(st.Err, apperrors.ErrBusy) {
		t.Fatalf("second Create() status = %v, want busy", st)
	}
	if st := repo.Delete(ctx, "1"); !errors.Is(st.Err, apperrors.ErrBusy) {
		t.Errorf("Delete() during create status = %v, want busy", st)
	}
	if fake.Calls(testutil.OpCreate) != 1 {
		t.Errorf("create calls = %d, want 1", fake.Calls(testutil.OpCreate))
	}

	gate.Release()
	if st := <-first; !st.OK {
		t.Fatalf("first Create() status = %v", st)
	}

	if _, st := repo.Create(ctx, client.BusinessDraft{Name: "Two"}); !st.OK {
		t.Errorf("Create() after release status = %v", st)
	}
}

func TestBusinessRepository_ConcurrentCreatesMatchService(t *testing.T) {
	fake := testutil.NewFakeService()
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, name := range []string{"One", "Two"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			repo.Create(ctx, client.BusinessDraft{Name: name, Industry: "Retail"})
		}(name)
	}
	wg.Wait()

	list, st := repo.List(ctx)
	if !st.OK {
		t.Fatalf("List() status = %v", st)
	}
	persisted, _ := fake.List(ctx)
	if len(list) != len(persisted) {
		t.Fatalf("List() = %d businesses, service has %d", len(list), len(persisted))
	}
	for i := range persisted {
		if list[i].ID != persisted[i].ID || list[i].Name != persisted[i].Name {
			t.Errorf("List()[%d] = %+v, service has %+v", i, list[i], persisted[i])
		}
	}
}

func TestBusinessRepository_ReadHelpers(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.Seed(client.BusinessDraft{Name: "Acme"})
	fake.Catalog[id] = []client.Item{{Index: 0, ProductName: "Widget"}, {Index: 1, ProductName: "Gadget"}}
	repo := NewBusinessRepository(fake, newTestLogger())
	ctx := context.Background()

	b, st := repo.Get(ctx, id)
	if !st.OK || b.Name != "Acme" {
		t.Errorf("Get() = %+v, status %v", b, st)
	}

	s, st := repo.Status(ctx, id)
	if !st.OK || s.HasData || s.HasModel {
		t.Errorf("Status() = %+v, status %v", s, st)
	}

	items, st := repo.Items(ctx, id, 1)
	if !st.OK || len(items) != 1 || items[0].ProductName != "Widget" {
		t.Errorf("Items() = %+v, status %v", items, st)
	}

	if _, st := repo.Get(ctx, ""); st.Code() != apperrors.ErrCodePrecondition {
		t.Errorf("Get(\"\") code = %q, want precondition", st.Code())
	}
	if fake.Calls(testutil.OpGet) != 1 {
		t.Errorf("get calls = %d, want 1", fake.Calls(testutil.OpGet))
	}
	if repo.Loaded() {
		t.Error("read helpers populated the cache")
	}
}

func TestBusinessRepository_ClearData(t *testing.T) {
	fake := testutil.NewFakeService()
	id := fake.Seed(client.BusinessDraft{Name: "Acme"})
	ctx := context.Background()
	if _, err := fake.Upload(ctx, id, "data.csv", strings.NewReader("a,b\n")); err != nil {
		t.Fatalf("seed upload: %v", err)
	}
	repo := NewBusinessRepository(fake, newTestLogger())

	resp, st := repo.ClearData(ctx, id)
	if !st.OK {
		t.Fatalf("ClearData() status = %v", st)
	}
	if len(resp.DeletedFiles) != 1 {
		t.Errorf("ClearData() deleted %v, want the dataset", resp.DeletedFiles)
	}
	if fake.Calls(testutil.OpList) != 0 {
		t.Error("ClearData() refreshed the business list")
	}
}
