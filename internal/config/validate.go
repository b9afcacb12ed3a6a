package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/leapstack-labs/leaporm/pkg/store"
)

var validate = validator.New()

// Validate checks field constraints and that the store type has a
// registered backend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	c.Store.Type = strings.ToLower(c.Store.Type)
	if !store.IsRegistered(c.Store.Type) {
		return &store.UnknownStoreError{
			Type:      c.Store.Type,
			Available: store.ListStores(),
		}
	}

	seen := make(map[string]bool, len(c.Resources))
	for _, r := range c.Resources {
		if seen[r.Table] {
			return fmt.Errorf("resource %q is declared twice", r.Table)
		}
		seen[r.Table] = true
	}
	return nil
}
