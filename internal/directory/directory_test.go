package directory

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"cabshare/internal/domain"
)

func user(username, password string) *domain.User {
	return &domain.User{Name: "Name " + username, Username: username, Password: password, Role: domain.RoleRider, Phone: "1"}
}

func TestRegister_RejectsDuplicateUsername(t *testing.T) {
	t.Parallel()

	d := New()
	if _, err := d.Register(user("alice", "pw")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := d.Register(user("alice", "other"))
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, _ := d.Lookup("alice")
	if got.Password != "pw" {
		t.Error("duplicate registration overwrote the original user")
	}
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	t.Parallel()

	d := New()
	var wg sync.WaitGroup
	var winners int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := d.Register(user("bob", fmt.Sprint(i))); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("expected exactly one registration to win, got %d", winners)
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 user, got %d", d.Len())
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	d := New()
	d.Register(user("carol", "secret"))

	if _, ok := d.Authenticate("carol", "secret"); !ok {
		t.Error("expected valid credentials to authenticate")
	}
	if _, ok := d.Authenticate("carol", "wrong"); ok {
		t.Error("expected wrong password to fail")
	}
	if _, ok := d.Authenticate("nobody", "secret"); ok {
		t.Error("expected unknown user to fail")
	}
}

func TestReplace(t *testing.T) {
	t.Parallel()

	d := New()
	d.Register(user("old", "pw"))

	d.Replace([]*domain.User{user("a", "1"), user("b", "2"), user("a", "dup")})

	if _, ok := d.Lookup("old"); ok {
		t.Error("expected old user to be removed")
	}
	a, ok := d.Lookup("a")
	if !ok || a.Password != "1" {
		t.Error("expected first occurrence of a to win")
	}

	all := d.All()
	if len(all) != 2 || all[0].Username != "a" || all[1].Username != "b" {
		t.Errorf("unexpected users after replace: %v", all)
	}
}
