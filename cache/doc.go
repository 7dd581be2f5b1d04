// Package cache persists descriptor set reflection results in a bbolt
// database, keyed by the Fingerprint of the shader code.
//
// Entries are JSON encoded and zstd compressed. A Store is safe for
// concurrent use; entries that fail to decode are treated as misses and
// rewritten on the next Reflect.
package cache
