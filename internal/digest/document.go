package digest

import (
	"fmt"
	"strings"
	"time"

	"noctua/internal/core"
	"noctua/internal/narrative"
)

const productionPreamble = `**PODCAST PRODUCTION INSTRUCTIONS:**
This document is organized into numbered segments. When generating the podcast:
- Begin with a warm welcome and brief overview of today's topics
- Present each segment in order, using the segment title as a transition
- Spend roughly the suggested time on each segment
- Skip any segment that contains no articles
- Use a conversational but informative tone throughout
- Transition smoothly between segments with brief bridges
- End with a brief wrap-up and sign-off`

// assemble lays out the document: title, preamble, intro, one block per
// segment and the outro. prose is indexed like plans.
func assemble(show core.Show, date time.Time, weather string, plans []segmentPlan, prose []string) string {
	sections := []string{
		fmt.Sprintf("# %s: Daily Briefing for %s", show.Name, date.Format("January 2, 2006")),
		productionPreamble,
		intro(show.Name, weather, plans),
	}

	for i, p := range plans {
		sections = append(sections,
			fmt.Sprintf("## SEGMENT %d: %s (~%d %s)", p.number, p.segment.Topic, p.segment.Minutes, minutesLabel(p.segment.Minutes)),
			fmt.Sprintf("*Segment budget: ~%d words*", p.wordBudget()),
			strings.TrimSpace(prose[i]),
			"---",
		)
	}

	sections = append(sections, outro(show.Name))
	return strings.Join(sections, "\n\n") + "\n"
}

func intro(showName, weather string, plans []segmentPlan) string {
	names := make([]string, len(plans))
	for i, p := range plans {
		names[i] = p.segment.Topic.String()
	}

	var b strings.Builder
	b.WriteString("## INTRO (~1 minute)\n")
	fmt.Fprintf(&b, "Welcome to %s, your daily knowledge briefing.", showName)
	if weather != "" {
		fmt.Fprintf(&b, " Right now it's %s.", weather)
	}
	fmt.Fprintf(&b, " Here's a quick look at what we're covering today: %s. Let's dive in.", narrative.JoinList(names))
	return b.String()
}

func outro(showName string) string {
	return fmt.Sprintf("## OUTRO (~1 minute)\nThat's all for today's %s. Thanks for listening, we'll be back tomorrow with more. Until then, stay curious.", showName)
}

func minutesLabel(m int) string {
	if m == 1 {
		return "minute"
	}
	return "minutes"
}
