package script

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"StepBoard/internal/state"
)

var (
	stepMarker  = regexp.MustCompile(`(?i)step\s*\d+\s*[,，]\s*`)
	leadingStep = regexp.MustCompile(`(?i)^step\s*\d+\s*[,，]\s*`)

	toolPattern  = regexp.MustCompile(`(?i)select\s+drawing\s+tool\s+([a-z_]+)`)
	colorPattern = regexp.MustCompile(`(?i)select\s+colou?r\s+([a-z_]+)`)
	widthPattern = regexp.MustCompile(`(?i)select\s+line\s+width\s+(\d+)\s*px`)
	drawPattern  = regexp.MustCompile(`(?i)draw\s+an?\s+([a-z_]+)\s*,\s*move\s+shape\s+to\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)`)
	fieldPattern = regexp.MustCompile(`(?i)set\s+([a-z]+(?:[ _][a-z]+)?)\s+to\s+(\d+)\s*px`)
	clearPattern = regexp.MustCompile(`(?i)^clear\s+(?:the\s+)?canvas$`)
)

// A matcher recognizes one clause form. marker is checked first; fragments
// that contain it but fail extraction are dropped.
type matcher struct {
	marker string
	match  func(fragment string) (Operation, bool)
}

var matchers = []matcher{
	{"select drawing tool", matchTool},
	{"select colo", matchColor},
	{"select line width", matchWidth},
	{"draw a", matchDraw},
	{"clear", matchClear},
}

// Parse converts step text into operations. Fragments that match no clause
// form are skipped; an empty result means there is nothing to execute.
func Parse(text string) []Operation {
	var ops []Operation
	for _, frag := range SplitSteps(text) {
		if op, ok := parseStep(frag); ok {
			ops = append(ops, op)
		}
	}
	return ops
}

// SplitSteps splits step text into clause strings with their "Step N,"
// prefix and terminator removed. Clauses are separated by semicolons, or by
// the step markers alone when the text has no semicolon.
func SplitSteps(text string) []string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "；", ";")
	var raw []string
	if strings.Contains(text, ";") {
		raw = strings.Split(text, ";")
	} else {
		raw = stepMarker.Split(text, -1)
	}

	out := make([]string, 0, len(raw))
	for _, frag := range raw {
		frag = strings.TrimSpace(frag)
		frag = trimTerminator(frag)
		frag = strings.TrimSpace(leadingStep.ReplaceAllString(frag, ""))
		if frag == "" {
			continue
		}
		out = append(out, frag)
	}
	return out
}

func trimTerminator(s string) string {
	for _, t := range []string{".", ";", "。"} {
		if strings.HasSuffix(s, t) {
			return strings.TrimSuffix(s, t)
		}
	}
	return s
}

func parseStep(frag string) (Operation, bool) {
	lower := strings.ToLower(frag)
	for _, m := range matchers {
		if strings.Contains(lower, m.marker) {
			return m.match(frag)
		}
	}
	return Operation{}, false
}

func matchTool(frag string) (Operation, bool) {
	m := toolPattern.FindStringSubmatch(frag)
	if m == nil {
		return Operation{}, false
	}
	return SelectTool(m[1]), true
}

func matchColor(frag string) (Operation, bool) {
	m := colorPattern.FindStringSubmatch(frag)
	if m == nil {
		return Operation{}, false
	}
	return SelectColor(m[1]), true
}

func matchWidth(frag string) (Operation, bool) {
	m := widthPattern.FindStringSubmatch(frag)
	if m == nil {
		return Operation{}, false
	}
	px, err := strconv.Atoi(m[1])
	if err != nil {
		return Operation{}, false
	}
	return SelectWidth(px), true
}

func matchDraw(frag string) (Operation, bool) {
	m := drawPattern.FindStringSubmatch(frag)
	if m == nil {
		return Operation{}, false
	}
	x, errX := strconv.Atoi(m[2])
	y, errY := strconv.Atoi(m[3])
	if errX != nil || errY != nil {
		return Operation{}, false
	}

	var params state.Params
	if kind, ok := state.ParseKind(m[1]); ok {
		params = extractFields(frag, state.FieldsFor(kind))
	}
	return DrawShape(m[1], state.Point{X: x, Y: y}, params), true
}

// extractFields reads "set <field> to <N>px" clauses, keeping only the
// fields in allowed.
func extractFields(frag string, allowed []string) state.Params {
	var p state.Params
	for _, m := range fieldPattern.FindAllStringSubmatch(frag, -1) {
		name := strings.ReplaceAll(strings.ToLower(m[1]), " ", "_")
		if !slices.Contains(allowed, name) {
			continue
		}
		v, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		p.Set(name, v)
	}
	return p
}

func matchClear(frag string) (Operation, bool) {
	if !clearPattern.MatchString(strings.TrimSpace(frag)) {
		return Operation{}, false
	}
	return Clear(), true
}
