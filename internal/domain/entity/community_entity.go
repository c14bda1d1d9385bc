package entity

import (
	"strings"
	"time"

	"github.com/oksasatya/circle-up/pkg/apperror"
)

// Community is a group chat owned by a single admin.
type Community struct {
	ID          string
	Name        string
	Description string
	AdminID     string
	Members     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Community) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.Validation("Community name is required")
	}
	if c.AdminID == "" {
		return apperror.Validation("Community admin is required")
	}
	return nil
}

func (c *Community) IsAdmin(userID string) bool {
	return userID != "" && c.AdminID == userID
}

func (c *Community) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MergeMembers adds ids not already present and returns the ones added.
func (c *Community) MergeMembers(ids []string) []string {
	added := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || c.HasMember(id) {
			continue
		}
		c.Members = append(c.Members, id)
		added = append(added, id)
	}
	return added
}
