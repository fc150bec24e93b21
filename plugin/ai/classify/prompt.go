package classify

import (
	"fmt"
	"strings"
)

// MaxDescriptionLength bounds the channel description quoted in the prompt.
const MaxDescriptionLength = 400

const promptTemplate = `Task: Create a 1 to 3 word classification for this YouTube channel.

Channel Name: %s
Primary YouTube Category: %s
Channel Description: %s

Last 3 Video Titles & Topics:
%s

Instructions:
If you can be specific, do so. For example, if the titles mention 'football' you can say the channel is about football instead of 'sports'. Similarly, 'baking' is more specific than 'cooking'. 'anime recaps' is better than 'anime'. A channel describing itself as "video essays on black movies and media" may be 'video essays' or 'black media' depending on the last 3 titles. Do NOT use overly general categories like "education". If it is an educational linguistics channel call it "linguistics".

DO NOT add multiple categories separated by a dash or slash. "Vlog/Travel" should just be "travel vlog". DO NOT USE a "/" to split several categories. Instead of "Film Analysis/Review/Commentary" write "film analysis".
- Use 1 to 3 words max.
- Be specific (e.g., "Python Web Development" instead of "Coding").
- Return ONLY JSON: {"category": "ClassificationName"}

ONLY USE THE JSON FORMAT {"category": "ClassificationName"}`

// BuildPrompt renders the classification prompt of a channel.
func BuildPrompt(req Request) string {
	lines := make([]string, len(req.Videos))
	for i, v := range req.Videos {
		lines[i] = "- " + v
	}
	return fmt.Sprintf(promptTemplate,
		req.ChannelName,
		req.Category,
		truncateRunes(req.Description, MaxDescriptionLength),
		strings.Join(lines, "\n"),
	)
}

// VideoSummary formats one video as "<title> (Topics: a, b)".
func VideoSummary(title string, topics []string) string {
	return fmt.Sprintf("%s (Topics: %s)", title, strings.Join(topics, ", "))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
