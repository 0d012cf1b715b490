package model

import "time"

// Project groups services and work items.
type Project struct {
	ID        string    `mapstructure:"id"`
	Name      string    `mapstructure:"name"`
	Color     string    `mapstructure:"color"`
	OwnerID   string    `mapstructure:"userId"`
	CreatedAt time.Time `mapstructure:"createdAt"`
}

// Fields encodes the writable project fields.
func (p Project) Fields() map[string]any {
	return map[string]any{
		"name":   p.Name,
		"color":  p.Color,
		"userId": p.OwnerID,
	}
}

// Service is a sub-grouping of a project.
type Service struct {
	ID          string    `mapstructure:"id"`
	Name        string    `mapstructure:"name"`
	Description string    `mapstructure:"description"`
	ProjectID   string    `mapstructure:"projectId"`
	OwnerID     string    `mapstructure:"userId"`
	CreatedAt   time.Time `mapstructure:"createdAt"`
}

// Fields encodes the writable service fields.
func (s Service) Fields() map[string]any {
	return map[string]any{
		"name":        s.Name,
		"description": s.Description,
		"projectId":   s.ProjectID,
		"userId":      s.OwnerID,
	}
}
