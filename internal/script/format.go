package script

import (
	"fmt"
	"strings"

	"StepBoard/internal/state"
)

// Clause renders a single operation without its step number.
func Clause(op Operation) string {
	switch op.Op {
	case OpSelectTool:
		return "select drawing tool " + op.Name
	case OpSelectColor:
		return "select color " + op.Name
	case OpSelectWidth:
		return fmt.Sprintf("select line width %dpx", op.Width)
	case OpDrawShape:
		var b strings.Builder
		fmt.Fprintf(&b, "draw a %s, move shape to (%d, %d)", op.Name, op.Center.X, op.Center.Y)
		if kind, ok := state.ParseKind(op.Name); ok {
			// top_base is parsed but a trapezoid's placement ignores it;
			// the Recorder leaves it out.
			for _, f := range state.FieldsFor(kind) {
				if v := op.Params.Get(f); v > 0 {
					fmt.Fprintf(&b, ", set %s to %dpx", f, v)
				}
			}
		}
		return b.String()
	case OpClear:
		return "clear canvas"
	}
	return ""
}

// Format renders operations as step text: "Step 1, ...;Step 2, ...." with
// semicolons between steps and a period after the last one.
func Format(ops []Operation) string {
	clauses := make([]string, 0, len(ops))
	for _, op := range ops {
		if c := Clause(op); c != "" {
			clauses = append(clauses, c)
		}
	}
	return join(clauses)
}

// Renumber rewrites the step numbers of text sequentially from 1, keeping
// every clause as written.
func Renumber(text string) string {
	return join(SplitSteps(text))
}

// Lines returns one display line per operation Parse keeps from text.
// Fragments Parse drops get no line, so line i is the step a cursor at i
// is applying.
func Lines(text string) []string { return StepLines(Parse(text)) }

// StepLines renders ops one per line, numbered from 1.
func StepLines(ops []Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = fmt.Sprintf("Step %d, %s.", i+1, Clause(op))
	}
	return out
}

func join(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range clauses {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "Step %d, %s", i+1, c)
	}
	b.WriteByte('.')
	return b.String()
}
