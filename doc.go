// Package slip is a pluggable authentication core: user identity,
// credential verification, session issuance, OAuth account linkage, email
// verification, and password-reset workflows over a relational store.
//
// The package is a library, not a server. Route handlers, cookies, and
// delivery of verification codes or reset tokens belong to the caller,
// which observes the core through its typed lifecycle hooks.
//
// Build a core with the fluent builder:
//
//	db, err := store.Open("slip.db")
//	// handle err, run store.EnsureSchema or bring your own tables
//	core, err := slip.New().
//		WithDB(db).
//		WithRedis(redisClient).
//		Build()
//
// Build validates the physical schema of the five tables before the core
// operates; see the schema package for the exact structural contract.
package slip
