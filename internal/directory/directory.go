// Package directory holds the in-memory table of registered users.
package directory

import (
	"errors"
	"sort"
	"sync"

	"cabshare/internal/domain"
)

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already taken")

// Directory maps usernames to users. It is safe for concurrent use.
type Directory struct {
	users sync.Map // username -> *domain.User
}

// New creates an empty Directory.
func New() *Directory {
	return &Directory{}
}

// Register stores user unless its username is already present.
func (d *Directory) Register(user *domain.User) (*domain.User, error) {
	if _, loaded := d.users.LoadOrStore(user.Username, user); loaded {
		return nil, ErrUsernameTaken
	}
	return user, nil
}

// Authenticate returns the user when username exists and password matches exactly.
func (d *Directory) Authenticate(username, password string) (*domain.User, bool) {
	user, ok := d.Lookup(username)
	if !ok || user.Password != password {
		return nil, false
	}
	return user, true
}

// Lookup returns the user registered under username.
func (d *Directory) Lookup(username string) (*domain.User, bool) {
	v, ok := d.users.Load(username)
	if !ok {
		return nil, false
	}
	return v.(*domain.User), true
}

// All returns every user ordered by username.
func (d *Directory) All() []*domain.User {
	var users []*domain.User
	d.users.Range(func(_, v any) bool {
		users = append(users, v.(*domain.User))
		return true
	})
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

// Len returns the number of registered users.
func (d *Directory) Len() int {
	n := 0
	d.users.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Replace swaps the directory contents for users. When usernames repeat,
// the first occurrence wins.
func (d *Directory) Replace(users []*domain.User) {
	keep := make(map[string]bool, len(users))
	for _, u := range users {
		if keep[u.Username] {
			continue
		}
		keep[u.Username] = true
		d.users.Store(u.Username, u)
	}
	d.users.Range(func(k, _ any) bool {
		if !keep[k.(string)] {
			d.users.Delete(k)
		}
		return true
	})
}
