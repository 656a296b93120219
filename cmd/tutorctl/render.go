package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/tutorcito/internal/curriculum"
	"github.com/ashureev/tutorcito/internal/domain"
	"github.com/ashureev/tutorcito/internal/tutor"
	"github.com/fatih/color"
)

var (
	tutorLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
	youLabel   = color.New(color.FgMagenta, color.Bold).SprintFunc()
	gain       = color.New(color.FgGreen).SprintFunc()
	heading    = color.New(color.Bold).SprintFunc()
	dim        = color.New(color.Faint).SprintFunc()
)

// renderer writes command output as text or JSON. The first write error is
// kept in err.
type renderer struct {
	w    io.Writer
	json bool
	err  error
}

func newRenderer(w io.Writer, format string) *renderer {
	return &renderer{w: w, json: format == "json"}
}

func (r *renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) encode(v any) {
	if r.err != nil {
		return
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	r.err = enc.Encode(v)
}

func (r *renderer) prompt() {
	if !r.json {
		r.printf("%s ", youLabel("tú>"))
	}
}

func (r *renderer) assistant(text string) {
	if r.json {
		r.encode(map[string]string{"sender": "assistant", "text": text})
		return
	}
	r.printf("%s %s\n", tutorLabel("tutor>"), text)
}

func (r *renderer) reply(reply tutor.Reply, progress domain.Progress) {
	if r.json {
		deltas := make(map[string]int, len(reply.Deltas))
		for t, p := range reply.Deltas {
			deltas[t.String()] = p
		}
		r.encode(map[string]any{
			"branch":   reply.Branch,
			"text":     reply.Text,
			"topics":   reply.Topics,
			"deltas":   deltas,
			"progress": progress,
		})
		return
	}

	r.assistant(reply.Text)
	parts := make([]string, 0, len(domain.AllTopics()))
	for _, t := range domain.AllTopics() {
		part := fmt.Sprintf("%s %d%%", t.DisplayName(), progress.Score(t))
		if p := reply.Deltas[t]; p > 0 {
			part += " " + gain(fmt.Sprintf("+%d", p))
		}
		parts = append(parts, part)
	}
	r.printf("%s\n", dim(strings.Join(parts, " · ")))
}

func (r *renderer) detail(d curriculum.TopicDetail) {
	if r.json {
		r.encode(d)
		return
	}
	r.printf("%s %s - %s\n", d.Icon, heading(d.Name), d.Description)
	r.printf("Nivel: %s (%d%%)\n\n", d.BandLabel, d.Score)
	r.list("Fortalezas", d.Strengths, false)
	r.list("Áreas de mejora", d.Weaknesses, false)
	r.list("Plan de Mejora Personalizado", d.Plan, true)
	r.printf("%s\n", dim(d.Tip))
}

func (r *renderer) dashboard(d curriculum.Dashboard) {
	if r.json {
		r.encode(d)
		return
	}
	r.printf("%s\n\n", heading(d.Greeting))
	for _, c := range d.Cards {
		r.printf("%s %-11s %3d%%  %s\n", c.Icon, c.Name, c.Score, c.BandLabel)
	}
	r.printf("\nFortaleza principal: %s\n", d.Strongest.Name)
	r.printf("Área a mejorar: %s\n\n", d.Weakest.Name)
	r.list("Plan de Mejora Personalizado", d.Plan, true)
}

func (r *renderer) list(title string, items []string, numbered bool) {
	r.printf("%s\n", heading(title))
	for i, item := range items {
		if numbered {
			r.printf("  %d. %s\n", i+1, item)
		} else {
			r.printf("  • %s\n", item)
		}
	}
	r.printf("\n")
}
