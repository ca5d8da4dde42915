package ai

import (
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// cleanReply strips reasoning blocks and wrapping quotes some models emit.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(thinkBlock.ReplaceAllString(reply, ""))
	if len(reply) < 2 {
		return reply
	}
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if strings.HasPrefix(reply, q[0]) && strings.HasSuffix(reply, q[1]) && len(reply) > len(q[0])+len(q[1]) {
			return strings.TrimSpace(reply[len(q[0]) : len(reply)-len(q[1])])
		}
	}
	return reply
}
