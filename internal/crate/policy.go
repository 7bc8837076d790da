package crate

import (
	"time"

	"mcph/crate-api/model"
)

// Access is the outcome of evaluating a read request against a crate's
// sharing settings.
type Access int

const (
	AccessAllowed Access = iota
	AccessPasswordRequired
	AccessDeniedNotFound
	AccessDeniedInvalidPassword
	AccessDeniedPrivate
)

// Err maps an access outcome to the matching sentinel error, or nil when
// access was granted.
func (a Access) Err() error {
	switch a {
	case AccessAllowed:
		return nil
	case AccessPasswordRequired:
		return ErrPasswordRequired
	case AccessDeniedInvalidPassword:
		return ErrInvalidPassword
	case AccessDeniedPrivate:
		return ErrNotPermitted
	default:
		return ErrNotFound
	}
}

// Evaluate decides whether id may read c. It has no side effects and is
// re-run on every fetch, cached decisions are never trusted.
//
// The checks run in order and the first match wins:
//
//  1. Missing or expired crates are reported as not found before anything
//     else so their existence never leaks through a different response.
//  2. The owner always gets in, even past their own password gate.
//  3. Anonymous-owned crates are readable by anyone. A fresh anonymous
//     upload has to work as a link before any sharing toggle is touched.
//  4. Public crates are open, unless a password hash is set, in which
//     case the caller is challenged and the supplied password compared
//     in constant time.
//  5. Everything else is a private crate read by a non-owner.
func (s *Service) Evaluate(c *model.Crate, id Identity, password string) Access {
	if c == nil || Expired(c, time.Now()) {
		return AccessDeniedNotFound
	}

	if id.Owns(c) {
		return AccessAllowed
	}

	if c.OwnerID == model.AnonymousOwner {
		return AccessAllowed
	}

	if c.Shared.Public {
		if !c.Shared.PasswordProtected() {
			return AccessAllowed
		}

		if password == "" {
			return AccessPasswordRequired
		}

		ok, err := s.Argon.VerifyPasswd(password, c.Shared.PasswordHash)
		if err != nil || !ok {
			return AccessDeniedInvalidPassword
		}

		return AccessAllowed
	}

	return AccessDeniedPrivate
}
