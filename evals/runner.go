package evals

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// ToolSelector maps a natural language request to a tool call. An LLM
// harness or a test double implements it.
type ToolSelector interface {
	SelectTool(ctx context.Context, input string) (tool string, args map[string]any, err error)
}

// SelectorFunc adapts a function to ToolSelector.
type SelectorFunc func(ctx context.Context, input string) (string, map[string]any, error)

// SelectTool calls f.
func (f SelectorFunc) SelectTool(ctx context.Context, input string) (string, map[string]any, error) {
	return f(ctx, input)
}

// Result is the outcome of one evaluated request.
type Result struct {
	TestID       string
	Group        string
	Input        string
	ExpectedTool string
	ActualTool   string
	Passed       bool
	Errors       []string
}

// Metrics aggregates an evaluation run.
type Metrics struct {
	TotalTests    int
	PassedTests   int
	FailedTests   int
	Accuracy      float64
	ByGroup       map[string]*GroupMetrics
	ByTool        map[string]*ToolMetrics
	FailedDetails []string
}

// GroupMetrics counts outcomes for a category, confusion pair or tool.
type GroupMetrics struct {
	Total  int
	Passed int
	Failed int
}

// ToolMetrics counts how a tool was expected and selected.
type ToolMetrics struct {
	ExpectedCount  int
	SelectedCount  int
	CorrectCount   int
	FalsePositives int // selected when another tool was expected
	FalseNegatives int // expected but another tool was selected
}

func newMetrics() *Metrics {
	return &Metrics{
		ByGroup: make(map[string]*GroupMetrics),
		ByTool:  make(map[string]*ToolMetrics),
	}
}

func (m *Metrics) group(name string) *GroupMetrics {
	g := m.ByGroup[name]
	if g == nil {
		g = &GroupMetrics{}
		m.ByGroup[name] = g
	}
	return g
}

func (m *Metrics) tool(name string) *ToolMetrics {
	t := m.ByTool[name]
	if t == nil {
		t = &ToolMetrics{}
		m.ByTool[name] = t
	}
	return t
}

// add counts r. Every evaluated request is counted, including selector
// errors and wrong tools.
func (m *Metrics) add(r Result) {
	m.TotalTests++
	g := m.group(r.Group)
	g.Total++

	m.tool(r.ExpectedTool).ExpectedCount++
	if r.ActualTool != "" {
		m.tool(r.ActualTool).SelectedCount++
	}
	if r.ActualTool == r.ExpectedTool {
		m.tool(r.ExpectedTool).CorrectCount++
	} else {
		m.tool(r.ExpectedTool).FalseNegatives++
		if r.ActualTool != "" {
			m.tool(r.ActualTool).FalsePositives++
		}
	}

	if r.Passed {
		m.PassedTests++
		g.Passed++
		return
	}
	m.FailedTests++
	g.Failed++
	m.FailedDetails = append(m.FailedDetails,
		fmt.Sprintf("[%s] %s: %s", r.TestID, r.Input, strings.Join(r.Errors, "; ")))
}

func (m *Metrics) finish() {
	if m.TotalTests > 0 {
		m.Accuracy = float64(m.PassedTests) / float64(m.TotalTests)
	}
}

// selectTool runs the selector and records a selector error or a wrong
// tool on r. It returns the extracted arguments when the tool matched.
func selectTool(ctx context.Context, selector ToolSelector, r *Result) map[string]any {
	tool, args, err := selector.SelectTool(ctx, r.Input)
	r.ActualTool = tool
	r.Passed = true
	if err != nil {
		r.fail("selector error: %v", err)
		return nil
	}
	if tool != r.ExpectedTool {
		r.fail("wrong tool: expected %s, got %s", r.ExpectedTool, displayTool(tool))
		return nil
	}
	return args
}

func (r *Result) fail(format string, a ...any) {
	r.Passed = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, a...))
}

func displayTool(name string) string {
	if name == "" {
		return "<none>"
	}
	return name
}

// checkArgs compares extracted arguments with the expected ones.
func checkArgs(r *Result, actual map[string]any, required []string, expected map[string]any, forbidden []string) {
	for _, key := range required {
		if _, ok := actual[key]; !ok {
			r.fail("missing required arg %s", key)
		}
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		want := expected[key]
		got, ok := actual[key]
		switch {
		case !ok:
			if !slices.Contains(required, key) {
				r.fail("missing arg %s (expected %v)", key, want)
			}
		case !compareValues(want, got):
			r.fail("wrong arg %s: expected %v, got %v", key, want, got)
		}
	}

	for _, key := range forbidden {
		if _, ok := actual[key]; ok {
			r.fail("forbidden arg %s", key)
		}
	}
}

// EvaluateToolSelection runs the tool selection suite.
func EvaluateToolSelection(ctx context.Context, suite *ToolSelectionSuite, selector ToolSelector) (*Metrics, []Result) {
	m := newMetrics()
	results := make([]Result, 0, len(suite.Tests))

	for _, test := range suite.Tests {
		r := Result{TestID: test.ID, Group: test.Category, Input: test.Input, ExpectedTool: test.ExpectedTool}
		if args := selectTool(ctx, selector, &r); r.Passed {
			checkArgs(&r, args, nil, test.ExpectedArgs, nil)
		}
		for _, not := range test.NotTools {
			if r.ActualTool == not {
				r.fail("selected forbidden tool %s", not)
			}
		}
		m.add(r)
		results = append(results, r)
	}

	m.finish()
	return m, results
}

// EvaluateConfusionPairs runs the confusion pair suite, grouping by pair.
func EvaluateConfusionPairs(ctx context.Context, suite *ConfusionPairSuite, selector ToolSelector) (*Metrics, []Result) {
	m := newMetrics()
	var results []Result

	for _, pair := range suite.Pairs {
		for i, test := range pair.Tests {
			r := Result{
				TestID:       fmt.Sprintf("%s-%d", pair.ID, i+1),
				Group:        pair.ID,
				Input:        test.Input,
				ExpectedTool: test.Expected,
			}
			selectTool(ctx, selector, &r)
			if !r.Passed && test.Reason != "" {
				r.Errors = append(r.Errors, "reason: "+test.Reason)
			}
			m.add(r)
			results = append(results, r)
		}
	}

	m.finish()
	return m, results
}

// EvaluateArguments runs the argument correctness suite, grouping by tool.
func EvaluateArguments(ctx context.Context, suite *ArgumentSuite, selector ToolSelector) (*Metrics, []Result) {
	m := newMetrics()
	results := make([]Result, 0, len(suite.Tests))

	for _, test := range suite.Tests {
		r := Result{TestID: test.ID, Group: test.Tool, Input: test.Input, ExpectedTool: test.Tool}
		if args := selectTool(ctx, selector, &r); r.Passed {
			checkArgs(&r, args, test.RequiredArgs, test.ExpectedArgs, test.ForbiddenArgs)
		}
		m.add(r)
		results = append(results, r)
	}

	m.finish()
	return m, results
}

// compareValues compares an expected JSON value with an extracted one.
// Numbers compare by value and strings case-insensitively.
func compareValues(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if ef, ok := toFloat(expected); ok {
		af, ok := toFloat(actual)
		return ok && ef == af
	}
	if es, ok := expected.(string); ok {
		as, ok := actual.(string)
		return ok && strings.EqualFold(strings.TrimSpace(es), strings.TrimSpace(as))
	}

	ev, av := reflect.ValueOf(expected), reflect.ValueOf(actual)
	if ev.Kind() == reflect.Slice && av.Kind() == reflect.Slice {
		if ev.Len() != av.Len() {
			return false
		}
		for i := range ev.Len() {
			if !compareValues(ev.Index(i).Interface(), av.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(expected, actual)
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// FormatMetrics returns a human-readable summary of a run.
func FormatMetrics(m *Metrics, suiteName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n=== %s ===\n", suiteName)
	fmt.Fprintf(&b, "Total: %d tests\n", m.TotalTests)
	fmt.Fprintf(&b, "Passed: %d (%.1f%%)\n", m.PassedTests, m.Accuracy*100)
	fmt.Fprintf(&b, "Failed: %d\n", m.FailedTests)

	if len(m.ByGroup) > 0 {
		names := make([]string, 0, len(m.ByGroup))
		for name := range m.ByGroup {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("\nBy Group:\n")
		for _, name := range names {
			g := m.ByGroup[name]
			if g.Total == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %-28s: %d/%d (%.0f%%)\n", name, g.Passed, g.Total, float64(g.Passed)/float64(g.Total)*100)
		}
	}

	const maxShown = 10
	if n := len(m.FailedDetails); n > 0 {
		shown := m.FailedDetails
		if n > maxShown {
			fmt.Fprintf(&b, "\nFailed Tests (showing first %d of %d):\n", maxShown, n)
			shown = shown[:maxShown]
		} else {
			b.WriteString("\nFailed Tests:\n")
		}
		for _, d := range shown {
			fmt.Fprintf(&b, "  - %s\n", d)
		}
	}

	return b.String()
}
