package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark keys
	KeyPrefixBookmark = "smartmark:bookmark:"
	// KeyPrefixOwner is the prefix for per-owner index keys
	KeyPrefixOwner = "smartmark:owner:"
)

// BookmarkKey returns the Redis key for a bookmark by ID
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// OwnerBookmarksKey returns the key of the sorted set holding an owner's
// bookmark IDs, scored by creation time
func OwnerBookmarksKey(ownerID string) string {
	return KeyPrefixOwner + ownerID + ":bookmarks"
}
