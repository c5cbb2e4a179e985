// Package policy decides whether an actor may mutate a resource. It knows
// nothing about storage: callers pass in the owner they loaded.
package policy

import "blog_api/internal/domain/model"

// CanMutate allows the resource owner and any admin.
func CanMutate(actor model.Actor, ownerID string) bool {
	if actor.ID == "" {
		return false
	}
	return actor.ID == ownerID || actor.IsAdmin()
}

// CanCreatePost is stricter than CanMutate: a new post has no owner yet, so
// only admins may write one.
func CanCreatePost(actor model.Actor) bool {
	return actor.ID != "" && actor.IsAdmin()
}

// CanComment allows any authenticated actor.
func CanComment(actor model.Actor) bool {
	return actor.ID != ""
}

// CanChangeRole guards role assignment on existing accounts.
func CanChangeRole(actor model.Actor) bool {
	return actor.IsAdmin()
}
