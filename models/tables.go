package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID           int       `gorm:"primary_key;autoIncrement" json:"id"`
	PasswordHash string    `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Email        string    `gorm:"unique;not null" json:"email"`
	TenantID     string    `gorm:"index" json:"tenant,omitempty"` // empty for platform admins
	Roles        string    `gorm:"not null;default:user" json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleList splits the comma separated Roles column.
func (u *User) RoleList() []string {
	var out []string
	for _, r := range strings.Split(u.Roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Document is one entry of any content collection. The full document is
// kept in Data; Tenant, Slug and Status are copies of the matching data keys
// so they can be indexed.
type Document struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Collection string         `gorm:"not null;size:64;index:idx_documents_collection_tenant,priority:1" json:"collection"`
	Tenant     string         `gorm:"size:36;index:idx_documents_collection_tenant,priority:2" json:"tenant"`
	Slug       string         `gorm:"index" json:"slug"`
	Status     string         `gorm:"size:32;index" json:"status"`
	Data       datatypes.JSON `gorm:"not null" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DocumentVersion is a previous copy of a document, written on every update.
type DocumentVersion struct {
	ID         uint           `gorm:"primary_key"`
	DocumentID string         `gorm:"not null;size:36;index" json:"document_id"`
	Collection string         `gorm:"not null;size:64" json:"collection"`
	Data       datatypes.JSON `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
}
