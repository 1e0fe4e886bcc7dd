package facade

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/cortex/internal/graph"
)

// FormatContext renders a context bundle as markdown for agent prompts.
func FormatContext(c *Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Context: %s\n\n", c.Project)
	if c.FlowID != "" {
		fmt.Fprintf(&b, "**Flow:** %s", c.FlowID)
		if c.FlowName != "" {
			fmt.Fprintf(&b, " (%s)", c.FlowName)
		}
		b.WriteString("\n\n")
	}
	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n\n")
	}

	if len(c.Files) > 0 {
		b.WriteString("## Files\n\n")
		for _, f := range c.Files {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
		b.WriteString("\n")
	}

	if fns := functionsOf(c.Entities); len(fns) > 0 {
		b.WriteString("## Functions\n\n")
		for _, e := range fns {
			if sig := e.Signature(); sig != "" {
				fmt.Fprintf(&b, "- `%s` in `%s`\n", sig, e.FilePath())
			} else {
				fmt.Fprintf(&b, "- `%s` in `%s`\n", e.Name, e.FilePath())
			}
		}
		b.WriteString("\n")
	}

	if len(c.Memories) > 0 {
		b.WriteString("## Relevant memories\n\n")
		for _, m := range c.Memories {
			fmt.Fprintf(&b, "### %s [%s, importance %d]\n\n%s\n\n",
				m.Title, m.Category, m.Importance, m.Content)
		}
	}

	if c.Section != "" {
		b.WriteString("## Skill documentation\n\n")
		b.WriteString(strings.TrimSpace(c.Section))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "---\nGraph: %d entities, %d relations. Built %s.\n",
		c.GraphStats.Entities, c.GraphStats.Relations, c.BuiltAt.Format("2006-01-02 15:04:05 UTC"))

	return b.String()
}

func functionsOf(entities []*graph.Entity) []*graph.Entity {
	var out []*graph.Entity
	for _, e := range entities {
		if e.Kind == graph.KindFunction {
			out = append(out, e)
		}
	}
	return out
}
