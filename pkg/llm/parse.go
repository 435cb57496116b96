package llm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sueda-gl/thes/pkg/types"
)

const maxPostLen = 280

// ParseAction turns a raw decision completion into a validated Action
// against the feed it was asked about. Parsing never fails hard: anything
// malformed or out of range degrades to ActionNone, because a confused
// model response means the agent scrolled past.
func ParseAction(response string, feed []*types.Post) types.Action {
	none := types.Action{Type: types.ActionNone}
	if strings.TrimSpace(response) == "" {
		return none
	}

	var (
		letter  string
		postNum int
		content string
		reason  string
	)

	lines := strings.Split(strings.TrimSpace(response), "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, "ACTION:"):
			v := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "ACTION:")))
			if v != "" && strings.ContainsRune("ABCDE", rune(v[0])) {
				letter = v[:1]
			}
		case strings.HasPrefix(line, "POST_NUMBER:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "POST_NUMBER:"))
			if n, err := strconv.Atoi(v); err == nil {
				postNum = n
			}
		case strings.HasPrefix(line, "CONTENT:"):
			content = strings.TrimSpace(strings.TrimPrefix(line, "CONTENT:"))
			// Content may run over several lines until the next field.
			for j := i + 1; j < len(lines); j++ {
				next := strings.TrimSpace(lines[j])
				if strings.HasPrefix(next, "REASON:") ||
					strings.HasPrefix(next, "ACTION:") ||
					strings.HasPrefix(next, "POST_NUMBER:") {
					break
				}
				if next != "" {
					content += " " + next
				}
			}
		case strings.HasPrefix(line, "REASON:"):
			reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		}
	}

	// A response with content but no ACTION line usually means the model
	// just wrote the post.
	if letter == "" && content != "" {
		letter = "D"
	}

	validPost := func() bool { return postNum >= 1 && postNum <= len(feed) }

	switch letter {
	case "A":
		if validPost() {
			return types.Action{Type: types.ActionLike, PostID: feed[postNum-1].ID, Reason: reason}
		}
	case "B":
		if validPost() && content != "" {
			return types.Action{
				Type:     types.ActionComment,
				ParentID: feed[postNum-1].ID,
				Content:  Truncate(content),
				Reason:   reason,
			}
		}
	case "C":
		if validPost() {
			return types.Action{
				Type:     types.ActionReshare,
				ParentID: feed[postNum-1].ID,
				Content:  Truncate(content),
				Reason:   reason,
			}
		}
	case "D":
		if content != "" {
			return types.Action{Type: types.ActionPost, Content: Truncate(content), Reason: reason}
		}
	case "E":
		return types.Action{Type: types.ActionNone, Reason: reason}
	}
	return none
}

// Truncate caps post content at platform length, marking the cut. The cut
// lands on a rune boundary so multi-byte content stays valid UTF-8.
func Truncate(content string) string {
	if len(content) <= maxPostLen {
		return content
	}
	n := maxPostLen - 3
	for n > 0 && !utf8.RuneStart(content[n]) {
		n--
	}
	return content[:n] + "..."
}

var ratingRe = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseBelief extracts (value in [0,1], thoughts) from a THOUGHTS+RATING
// completion. A missing rating falls back to keyword sentiment over the
// thoughts; a fully unparsable response reads as neutral.
func ParseBelief(response string) (float64, string) {
	var (
		rating   = -1.0
		thoughts string
	)

	var lines []string
	for _, l := range strings.Split(response, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "THOUGHTS:"):
			thoughts = strings.TrimSpace(strings.TrimPrefix(line, "THOUGHTS:"))
			for j := i + 1; j < len(lines); j++ {
				if strings.HasPrefix(lines[j], "RATING:") {
					break
				}
				thoughts += " " + lines[j]
			}
		case strings.HasPrefix(line, "RATING:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "RATING:"))
			if m := ratingRe.FindString(v); m != "" {
				if f, err := strconv.ParseFloat(m, 64); err == nil {
					rating = f
				}
			}
		}
	}

	if rating >= 0 {
		if rating > 10 {
			rating = 10
		}
		return rating / 10, thoughts
	}

	if thoughts != "" {
		return sentimentFallback(thoughts), thoughts
	}
	return 0.5, "Failed to parse belief assessment"
}

func sentimentFallback(thoughts string) float64 {
	lower := strings.ToLower(thoughts)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("deeply", "extremely", "very concerned", "committed"):
		return 0.8
	case has("concerned", "care about", "important"):
		return 0.6
	case has("somewhat", "aware", "moderately"):
		return 0.5
	case has("not really", "skeptical", "not concerned"):
		return 0.3
	default:
		return 0.5
	}
}
