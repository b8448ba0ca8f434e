// Package storage provides the domain model backends the authorization layer reads from.
//
// # Overview
//
// Every backend implements auth.Model (users, groups, datasets and memberships) plus
// Writer for seeding and administration:
//
//   - MemoryStore: process memory, for tests and demos
//   - SQLStore: database/sql over SQLite (mattn/go-sqlite3) or PostgreSQL (lib/pq)
//   - CachedModel: an expirable LRU in front of any auth.Model for user and group lookups
//
// Memberships are never cached, so role changes take effect on the next check.
//
// # Usage
//
//	store, model, err := storage.Open(ctx, cfg.Storage)
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
// Lookups by name also accept IDs, and missing entities return auth.ErrNotFound.
package storage
