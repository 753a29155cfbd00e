package domain

// DefaultKeyPrefix namespaces every key vecnote writes to the key-value store
// unless storage.key_prefix overrides it.
const DefaultKeyPrefix = "vecnote:"
