package constants

import "time"

const (
	UserCachePrefix       = "user_email"   // Single cache by email (CacheBuilder adds colon)
	SessionCachePrefix    = "session"      // Session token cache (CacheBuilder adds colon)
	AssignmentCachePrefix = "assignments"  // Technician listing cache by userID
	UserCacheExpiry       = 24 * time.Hour
	AssignmentCacheExpiry = 5 * time.Minute
)
