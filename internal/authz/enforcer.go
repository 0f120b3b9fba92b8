// Package authz decides whether a principal may perform an action on a
// resource kind. Decisions come from an embedded Casbin RBAC table with a
// role hierarchy (anonymous < user < moderator < admin) and an ownership
// scope column, so "author or staff" rules need no special casing.
//
// Decisions are computed per call and never cached: a role change or an
// ownership transfer is visible on the very next request.
package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/princeprakhar/yamdb-backend/internal/metrics"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

const subjectAnonymous = "anonymous"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Kind string

const (
	KindCategory Kind = "category"
	KindGenre    Kind = "genre"
	KindTitle    Kind = "title"
	KindReview   Kind = "review"
	KindComment  Kind = "comment"
	KindUser     Kind = "user"    // admin account management
	KindProfile  Kind = "profile" // the caller's own account
)

var (
	// ErrForbidden is returned when the principal lacks the capability.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrUnauthenticated is the anonymous flavour of ErrForbidden; it
	// matches errors.Is(err, ErrForbidden) too.
	ErrUnauthenticated = fmt.Errorf("%w: authentication credentials were not provided", ErrForbidden)
)

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}

	return &Enforcer{enforcer: enforcer}, nil
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 5 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3], parts[4]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type in %q", line)
		}
	}
	return nil
}

// Decide reports whether p may perform act on a resource of kind. ownerID
// is the owning user of the instance, or 0 when there is no instance
// (list, create) or the kind has no owner.
func (e *Enforcer) Decide(p Principal, act Action, kind Kind, ownerID uint) bool {
	own := "other"
	if ownerID != 0 && p.Authenticated() && ownerID == p.UserID {
		own = "own"
	}

	allowed, err := e.enforcer.Enforce(p.Subject(), string(kind), string(act), own)
	if err != nil {
		logger.WithError(err).Error("authorization enforcement failed")
		allowed = false
	}

	decision := "allow"
	if !allowed {
		decision = "deny"
	}
	metrics.AuthzDecisionsTotal.WithLabelValues(p.Subject(), string(kind), string(act), decision).Inc()

	return allowed
}

// Authorize is Decide as an error: nil, ErrUnauthenticated for anonymous
// principals, ErrForbidden otherwise.
func (e *Enforcer) Authorize(p Principal, act Action, kind Kind, ownerID uint) error {
	if e.Decide(p, act, kind, ownerID) {
		return nil
	}
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// AuthorizeKind checks whether p could perform act on some instance of
// kind, assuming the most favourable ownership. It runs before the instance
// is loaded so that a principal who can never act on the kind is refused
// without learning whether the instance exists.
func (e *Enforcer) AuthorizeKind(p Principal, act Action, kind Kind) error {
	return e.Authorize(p, act, kind, p.UserID)
}
