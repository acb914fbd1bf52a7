// Package common keeps enums shared by configuration and conversion engine,
// so engine packages do not have to depend on configuration.
package common

//go:generate go tool go-enum --marshal --names

// Where supplementary text of abbreviations and citations is placed.
// ENUM(page-end, document-end)
type AcronymPosition int

// Placement of table caption relative to the table.
// ENUM(none, above, below)
type CaptionPosition int
