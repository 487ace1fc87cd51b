package redis

import "fmt"

// Key prefix for all relay data
const keyPrefix = "roomrelay"

// accountKey returns the Redis key for an account record
func accountKey(username string) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, username)
}

// accountOrderKey returns the Redis key for the list of usernames in
// creation order
func accountOrderKey() string {
	return fmt.Sprintf("%s:accounts", keyPrefix)
}
