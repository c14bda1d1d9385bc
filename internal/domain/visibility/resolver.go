// Package visibility decides which of a user's two names a viewer sees.
package visibility

import "github.com/oksasatya/circle-up/internal/domain/entity"

// ResolveDisplayName returns target's real name only when target holds an
// edge to viewerID with ShowName set. An empty viewer always gets the
// anonymous name.
func ResolveDisplayName(target *entity.User, viewerID string) string {
	if target == nil {
		return ""
	}
	if viewerID == "" {
		return target.AnonymousName
	}
	if e, ok := target.Edge(viewerID); ok && e.ShowName {
		return target.Name
	}
	return target.AnonymousName
}

// ChatDisplayName is ResolveDisplayName except that a user always sees
// their own real name.
func ChatDisplayName(target *entity.User, viewerID string) string {
	if target != nil && viewerID != "" && target.ID == viewerID {
		return target.Name
	}
	return ResolveDisplayName(target, viewerID)
}

// RevealsName reports whether viewerID is shown target's real name.
func RevealsName(target *entity.User, viewerID string) bool {
	if target == nil || viewerID == "" {
		return false
	}
	if target.ID == viewerID {
		return true
	}
	e, ok := target.Edge(viewerID)
	return ok && e.ShowName
}

// Candidates filters all down to the users viewer may still discover: not
// the viewer, and no edge in either direction. Order of all is kept.
func Candidates(viewer *entity.User, all []*entity.User) []*entity.User {
	out := make([]*entity.User, 0, len(all))
	for _, u := range all {
		if u == nil || u.ID == viewer.ID {
			continue
		}
		if viewer.HasFriend(u.ID) || u.HasFriend(viewer.ID) {
			continue
		}
		out = append(out, u)
	}
	return out
}
