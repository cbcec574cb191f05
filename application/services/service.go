// Package services holds the application layer: authorization, the
// cache-aside read paths, and post-commit cache invalidation. Handlers
// translate HTTP to these calls; repositories stay storage-only.
package services

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
)

// Actor identifies the authenticated caller. A nil Actor is an anonymous
// request.
type Actor struct {
	ID    string
	Name  string
	Admin bool
}

// IsAdmin reports whether the caller holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Admin
}

// UserID returns the caller's ID, or "" for anonymous requests.
func (a *Actor) UserID() string {
	if a == nil {
		return ""
	}
	return a.ID
}

// maxSlugProbes bounds the uniqueness scan before falling back to an error.
const maxSlugProbes = 1000

// uniqueSlug derives a URL slug from the title and suffixes a counter until
// it is free: hello-world, hello-world-1, hello-world-2.
func uniqueSlug(ctx context.Context, title string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for i := 1; i <= maxSlugProbes; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}
