package main

import (
	"context"
	"fmt"
	"testing"
)

type fakeService struct {
	name    string
	initErr error
	initLog *[]string
	shutLog *[]string
	shutErr error
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Initialize(ctx context.Context) error {
	if s.initLog != nil {
		*s.initLog = append(*s.initLog, s.name)
	}
	return s.initErr
}

func (s *fakeService) Shutdown() error {
	if s.shutLog != nil {
		*s.shutLog = append(*s.shutLog, s.name)
	}
	return s.shutErr
}

func newTestRegistry() *ServiceRegistry {
	return NewServiceRegistry(context.Background(), func(string) {})
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := newTestRegistry()

	if err := r.Register(&fakeService{name: "config"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := r.Register(&fakeService{name: "config"}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegistryGet(t *testing.T) {
	r := newTestRegistry()
	svc := &fakeService{name: "sessions"}
	if err := r.Register(svc); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Get("sessions")
	if !ok || got != Service(svc) {
		t.Errorf("Get = %v, %v", got, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get on unknown name should report false")
	}
}

func TestRegistryInitializeOrderAndShutdownReverse(t *testing.T) {
	r := newTestRegistry()
	var inits, shuts []string

	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(&fakeService{name: name, initLog: &inits, shutLog: &shuts}); err != nil {
			t.Fatal(err)
		}
	}

	if err := r.InitializeAll(); err != nil {
		t.Fatalf("InitializeAll: %v", err)
	}
	if fmt.Sprint(inits) != "[a b c]" {
		t.Errorf("init order = %v", inits)
	}

	r.ShutdownAll()
	if fmt.Sprint(shuts) != "[c b a]" {
		t.Errorf("shutdown order = %v", shuts)
	}
}

func TestRegistryCriticalFailureAborts(t *testing.T) {
	r := newTestRegistry()
	var inits []string

	r.Register(&fakeService{name: "soft", initErr: fmt.Errorf("degraded"), initLog: &inits})
	r.RegisterCritical(&fakeService{name: "hard", initErr: fmt.Errorf("boom"), initLog: &inits})

	if err := r.InitializeAll(); err == nil {
		t.Error("critical failure should abort InitializeAll")
	}
	if fmt.Sprint(inits) != "[soft hard]" {
		t.Errorf("init attempts = %v", inits)
	}
}

func TestRegistryNonCriticalFailureContinues(t *testing.T) {
	r := newTestRegistry()
	var inits []string

	r.Register(&fakeService{name: "flaky", initErr: fmt.Errorf("degraded"), initLog: &inits})
	r.Register(&fakeService{name: "healthy", initLog: &inits})

	if err := r.InitializeAll(); err != nil {
		t.Fatalf("InitializeAll: %v", err)
	}
	if fmt.Sprint(inits) != "[flaky healthy]" {
		t.Errorf("init attempts = %v", inits)
	}
}
