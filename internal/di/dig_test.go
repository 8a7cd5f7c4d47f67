package di

import (
	"testing"
)

type testStore struct {
	name string
}

type testUploader struct {
	store *testStore
}

func TestNewWithProviders(t *testing.T) {
	container, err := New(
		WithProviders(
			func() *testStore { return &testStore{name: "datasets"} },
			func(s *testStore) *testUploader { return &testUploader{store: s} },
		),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	uploader := MustGet[*testUploader](container)
	if uploader.store == nil || uploader.store.name != "datasets" {
		t.Errorf("dependency not injected: %+v", uploader)
	}
}

func TestMustGetPanicsOnMissingDependency(t *testing.T) {
	container, err := New()
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGet should panic for an unregistered type")
		}
	}()
	_ = MustGet[*testUploader](container)
}

func TestInvokeResolvesLazily(t *testing.T) {
	// Core providers reach AWS config loading only when invoked, so building
	// the container must not require credentials.
	built := false
	container, err := New(WithProviders(func() *testStore {
		built = true
		return &testStore{}
	}))
	if err != nil {
		t.Fatal(err)
	}
	if built {
		t.Error("provider ran before Invoke")
	}
	_ = MustGet[*testStore](container)
	if !built {
		t.Error("provider did not run on Invoke")
	}
}
