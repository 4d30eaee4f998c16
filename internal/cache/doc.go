// Package cache stores synthesized clips across up to three tiers: a bounded
// in-memory LRU (L1), a compressed on-disk store (L2) and an optional shared
// Redis instance (L3). Manager ties the tiers together and satisfies
// ttypes.AudioCache.
package cache
