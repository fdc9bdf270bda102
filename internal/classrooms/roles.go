package classrooms

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed roles.yaml
var rolesYAML []byte

type roleCatalog struct {
	Roles []Role `yaml:"roles"`
}

// Catalog returns the fixed set of roles every deployment carries.
func Catalog() ([]Role, error) {
	return parseCatalog(rolesYAML)
}

func parseCatalog(data []byte) ([]Role, error) {
	var c roleCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse role catalog: %w", err)
	}
	seen := map[string]bool{}
	for _, r := range c.Roles {
		if r.Name == "" {
			return nil, fmt.Errorf("parse role catalog: role without a name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("parse role catalog: duplicate role %q", r.Name)
		}
		seen[r.Name] = true
	}
	for _, required := range []string{RoleStudent, RoleTeacher} {
		if !seen[required] {
			return nil, fmt.Errorf("parse role catalog: missing role %q", required)
		}
	}
	return c.Roles, nil
}

// SeedRoles upserts the catalog by name and returns how many roles it holds.
func SeedRoles(d *gorm.DB) (int, error) {
	roles, err := Catalog()
	if err != nil {
		return 0, err
	}
	err = d.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"description"}),
	}).Create(&roles).Error
	if err != nil {
		return 0, err
	}
	return len(roles), nil
}
