package bus

// IsMatching reports whether a concrete topic matches a subscription
// pattern. '*' matches zero or more characters and '?' matches exactly
// one. Patterns without wildcards compare as plain strings.
func IsMatching(topic, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if topic == pattern {
		return true
	}

	n, m := len(topic), len(pattern)
	prev := make([]bool, m+1)
	cur := make([]bool, m+1)

	prev[0] = true
	for j := 1; j <= m; j++ {
		if pattern[j-1] == '*' {
			prev[j] = prev[j-1]
		}
	}

	for i := 1; i <= n; i++ {
		cur[0] = false
		for j := 1; j <= m; j++ {
			switch pattern[j-1] {
			case '*':
				cur[j] = prev[j] || cur[j-1]
			case '?':
				cur[j] = prev[j-1]
			default:
				cur[j] = prev[j-1] && topic[i-1] == pattern[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[m]
}
