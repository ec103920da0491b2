// Package repository is the entity runtime: map-like Entity values bound to a
// registered model, finders built on the model's select template, and
// save/update/remove built on its insert/update/delete templates.
package repository
