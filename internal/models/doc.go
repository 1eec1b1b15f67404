// Package models defines the core domain records for the JewGo directory.
//
// # Entities
//
//   - Restaurant: kosher-certified eatery with certification metadata,
//     location, hours and a rating aggregate
//   - Review: user-submitted rating, moderated before it counts
//   - RestaurantImage: carousel metadata (URLs, not bytes)
//   - Synagogue, Mikvah: community venues with their own filter fields
//   - Listing: marketplace item posted by a registered user
//   - User: registered account or Turnstile-verified guest session
//   - AuditEntry: back-office audit trail row
//
// # Design notes
//
// IDs are string UUIDs and timestamps are Unix seconds, so records marshal
// identically over JSON and scan cleanly on both Postgres and SQLite.
// Relationships are ID strings, never embedded pointers, to keep records
// cycle-free. Moderated entities share the status constants in status.go.
package models
