// Package directory serves the reference lists the form front end needs:
// branch names, departments, packing options, and share contacts.
package directory

import (
	"encoding/json"
	"fmt"
	"os"

	"shortfall/api/internal/form"
	"shortfall/api/internal/share"
)

// Directory holds the selectable values for the form header and the
// share destinations.
type Directory struct {
	Branches       []string        `json:"branches"`
	Departments    []string        `json:"departments"`
	PackingOptions []string        `json:"packingOptions"`
	Contacts       []share.Contact `json:"contacts"`
}

// Default returns the compiled-in directory used when no override file
// is configured. Contact numbers are placeholders until deployment
// config supplies real ones.
func Default() Directory {
	return Directory{
		Branches: []string{
			"Riyadh Exit 9",
			"Riyadh Olaya",
			"Jeddah Corniche",
			"Dammam",
			"Khobar",
		},
		Departments: []string{
			"Grocery",
			"Produce",
			"Dairy",
			"Bakery",
			"Frozen",
			"Household",
		},
		PackingOptions: []string{
			string(form.PackingUnit),
			string(form.PackingCarton),
			string(form.PackingPack),
		},
		Contacts: []share.Contact{
			{Name: "Purchasing office", Number: "+966500000001"},
			{Name: "Warehouse desk", Number: "+966500000002"},
		},
	}
}

// Load reads a directory override from a JSON file. An empty path
// yields the compiled-in defaults. Lists missing from the file keep
// their default values.
func Load(path string) (Directory, error) {
	dir := Default()
	if path == "" {
		return dir, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Directory{}, fmt.Errorf("read directory file: %w", err)
	}
	var override Directory
	if err := json.Unmarshal(raw, &override); err != nil {
		return Directory{}, fmt.Errorf("parse directory file: %w", err)
	}
	if len(override.Branches) > 0 {
		dir.Branches = override.Branches
	}
	if len(override.Departments) > 0 {
		dir.Departments = override.Departments
	}
	if len(override.PackingOptions) > 0 {
		dir.PackingOptions = override.PackingOptions
	}
	if len(override.Contacts) > 0 {
		dir.Contacts = override.Contacts
	}
	return dir, nil
}

// ContactNumber resolves a contact name to its number. An empty name
// picks the first contact. An unknown name returns empty.
func (d Directory) ContactNumber(name string) string {
	if name == "" {
		if len(d.Contacts) > 0 {
			return d.Contacts[0].Number
		}
		return ""
	}
	for _, c := range d.Contacts {
		if c.Name == name {
			return c.Number
		}
	}
	return ""
}
