// Package static is an in-memory stand-in for every compliance source, used
// in development and tests.
package static

import (
	"context"
	"sync"

	"accessgate/internal/compliance"
	id "accessgate/pkg/domain"
)

type credentialKey struct {
	externalID string
	name       string
}

type loginKey struct {
	userID   id.UserID
	provider compliance.IdentityProvider
}

// Sources answers from maps. Unset entries read as absent.
type Sources struct {
	mu          sync.RWMutex
	externalIDs map[id.UserID]string
	credentials map[credentialKey]compliance.TrainingCredential
	links       map[id.UserID]compliance.LinkStatus
	enrollments map[id.UserID]compliance.Enrollment
	logins      map[loginKey]compliance.IdentityLogin
	failure     error
}

func New() *Sources {
	return &Sources{
		externalIDs: make(map[id.UserID]string),
		credentials: make(map[credentialKey]compliance.TrainingCredential),
		links:       make(map[id.UserID]compliance.LinkStatus),
		enrollments: make(map[id.UserID]compliance.Enrollment),
		logins:      make(map[loginKey]compliance.IdentityLogin),
	}
}

func (s *Sources) SetExternalID(userID id.UserID, externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externalIDs[userID] = externalID
}

func (s *Sources) SetCredential(externalID string, cred compliance.TrainingCredential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[credentialKey{externalID: externalID, name: cred.Name}] = cred
}

func (s *Sources) RemoveCredential(externalID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials, credentialKey{externalID: externalID, name: name})
}

func (s *Sources) SetLink(userID id.UserID, link compliance.LinkStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[userID] = link
}

func (s *Sources) SetEnrollment(userID id.UserID, enrolled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[userID] = compliance.Enrollment{Enrolled: enrolled}
}

func (s *Sources) SetIdentityLogin(userID id.UserID, login compliance.IdentityLogin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logins[loginKey{userID: userID, provider: login.Provider}] = login
}

// FailWith makes every call return err until cleared with nil.
func (s *Sources) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func (s *Sources) LookupExternalID(_ context.Context, userID id.UserID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return "", false, s.failure
	}
	ext, ok := s.externalIDs[userID]
	return ext, ok, nil
}

func (s *Sources) GetCredential(_ context.Context, externalID, name string) (*compliance.TrainingCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	cred, ok := s.credentials[credentialKey{externalID: externalID, name: name}]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *Sources) GetLinkStatus(_ context.Context, userID id.UserID) (*compliance.LinkStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	link, ok := s.links[userID]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (s *Sources) GetEnrollment(_ context.Context, userID id.UserID) (*compliance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	e, ok := s.enrollments[userID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *Sources) GetIdentityLogin(_ context.Context, userID id.UserID, provider compliance.IdentityProvider) (*compliance.IdentityLogin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failure != nil {
		return nil, s.failure
	}
	login, ok := s.logins[loginKey{userID: userID, provider: provider}]
	if !ok {
		return nil, nil
	}
	return &login, nil
}
