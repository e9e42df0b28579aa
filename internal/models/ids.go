package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (g *Group) BeforeCreate(*gorm.DB) error           { ensureID(&g.ID); return nil }
func (s *School) BeforeCreate(*gorm.DB) error          { ensureID(&s.ID); return nil }
func (c *CommunityCenter) BeforeCreate(*gorm.DB) error { ensureID(&c.ID); return nil }
func (v *Vehicle) BeforeCreate(*gorm.DB) error         { ensureID(&v.ID); return nil }
func (c *Child) BeforeCreate(*gorm.DB) error           { ensureID(&c.ID); return nil }
func (r *Request) BeforeCreate(*gorm.DB) error         { ensureID(&r.ID); return nil }
func (c *Carpool) BeforeCreate(*gorm.DB) error         { ensureID(&c.ID); return nil }
func (m *Message) BeforeCreate(*gorm.DB) error         { ensureID(&m.ID); return nil }
func (m *GroupMessage) BeforeCreate(*gorm.DB) error    { ensureID(&m.ID); return nil }
func (f *Friend) BeforeCreate(*gorm.DB) error          { ensureID(&f.ID); return nil }
