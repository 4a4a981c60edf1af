package client

import "sync"

// Session holds the in-memory access token and the signed in user. It is
// shared by a Client and whatever renders auth state; it is never global.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *User

	nextID uint64
	subs   []subscriber
}

type subscriber struct {
	id uint64
	fn func(token string)
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when signed out.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Set(token string, user *User) {
	s.write(func() {
		s.token = token
		if user != nil {
			u := *user
			s.user = &u
		}
	})
}

func (s *Session) SetToken(token string) {
	s.write(func() { s.token = token })
}

func (s *Session) Clear() {
	s.write(func() {
		s.token = ""
		s.user = nil
	})
}

// Subscribe registers fn to be called with the token after every write.
// Calls happen on the writer's goroutine, after the lock is released.
func (s *Session) Subscribe(fn func(token string)) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Session) write(apply func()) {
	s.mu.Lock()
	apply()
	token := s.token
	fns := make([]func(string), len(s.subs))
	for i, sub := range s.subs {
		fns[i] = sub.fn
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(token)
	}
}
