package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/ratelens/internal/graph"
)

// Rendering is the rendered text of one step.
type Rendering struct {
	Step int    `json:"step"`
	Text string `json:"text"`
}

// RenderAll renders every step of g in ascending step order. The first
// failure aborts the call.
func (r *Renderer) RenderAll(g *graph.Graph) ([]Rendering, error) {
	nodes := g.Nodes()
	out := make([]Rendering, 0, len(nodes))
	for _, n := range nodes {
		text, err := r.Render(n)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", n.Meta().Step, err)
		}
		out = append(out, Rendering{Step: n.Meta().Step, Text: text})
	}
	return out, nil
}

// RenderGraph renders g as one markdown document: a section per step,
// then notes on loops and unreachable steps when there are any.
func (r *Renderer) RenderGraph(g *graph.Graph) (string, error) {
	steps, err := r.RenderAll(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&sb, "### Step %d\n\n%s\n\n", s.Step, s.Text)
	}

	if loops := g.Loops(); len(loops) > 0 {
		sb.WriteString("### Loops\n\n")
		for _, l := range loops {
			fmt.Fprintf(&sb, "- %s\n", l.Message)
		}
		sb.WriteString("\n")
	}

	if unreachable := g.Unreachable(); len(unreachable) > 0 {
		sb.WriteString("### Unreachable steps\n\n")
		for _, s := range unreachable {
			sb.WriteString("- Step " + strconv.Itoa(s) + "\n")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
