package mind

// HasPost reports whether text exactly matches a remembered post.
func (m *Memory) HasPost(text string) bool {
	for _, p := range m.RecentPosts {
		if p == text {
			return true
		}
	}
	return false
}

// RememberPost appends text and evicts the oldest entries beyond MaxRecentPosts.
func (m *Memory) RememberPost(text string) {
	m.RecentPosts = append(m.RecentPosts, text)
	if over := len(m.RecentPosts) - MaxRecentPosts; over > 0 {
		m.RecentPosts = append([]string(nil), m.RecentPosts[over:]...)
	}
}

// normalize repairs a decoded memory so the invariants hold.
func (m *Memory) normalize() {
	if m.RecentTopics == nil {
		m.RecentTopics = []string{}
	}
	if m.RecentPosts == nil {
		m.RecentPosts = []string{}
	}
	if over := len(m.RecentPosts) - MaxRecentPosts; over > 0 {
		m.RecentPosts = append([]string(nil), m.RecentPosts[over:]...)
	}
	if m.ProcessedTweets == nil {
		m.ProcessedTweets = map[string]bool{}
	}
}
