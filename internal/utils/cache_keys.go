package utils

import "strconv"

const FeedCacheFamily = "posts:feed"

// BuildFeedCacheKey versions the key so a payload shape change never reads stale bytes.
// gen is bumped by every post write, so a feed computed before the write lands under a key no reader asks for.
func BuildFeedCacheKey(gen uint64, limit int) string {
	return FeedCacheFamily + ":v1:gen=" + strconv.FormatUint(gen, 10) + ":limit=" + strconv.Itoa(limit)
}
