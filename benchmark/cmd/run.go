package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string
	Framework  string
	Category   string
	Scenario   string
	Iterations int64
	NsPerOp    float64
	BytesPerOp int64
	AllocsOp   int64
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Quill": {text.FgGreen},
	"Do":    {text.FgYellow},
	"Dig":   {text.FgMagenta},
	"Fx":    {text.FgBlue},
}

var categoryOrder = []string{
	"Bind_Simple", "Bind_Chain",
	"Resolve_Singleton", "Resolve_Chain", "Resolve_Transient",
	"Named_10",
	"Validate_Chain", "Validate_Container",
}

var categoryTitles = map[string]string{
	"Bind_Simple":        "Binding registration (single instance)",
	"Bind_Chain":         "Binding registration (dependency chain)",
	"Resolve_Singleton":  "Resolution (cached instance)",
	"Resolve_Chain":      "Resolution (singleton chain)",
	"Resolve_Transient":  "Resolution (transient chain)",
	"Named_10":           "Identified bindings (10 ids)",
	"Validate_Chain":     "Validation (dependency chain)",
	"Validate_Container": "Validation (whole container)",
}

func main() {
	heading := text.Colors{text.Bold, text.FgCyan}
	fmt.Println()
	fmt.Println(heading.Sprint("Quill DI benchmark suite"))
	fmt.Println(text.Faint.Sprint("Running benchmarks..."))
	fmt.Println()

	exportToJSON := slices.Contains(os.Args[1:], "--json")
	benchDir := ".."
	for _, arg := range os.Args[1:] {
		if arg != "--json" {
			benchDir = arg
		}
	}

	cmd := exec.Command("go", "test", "-bench=.", "-benchmem", "-count=3", "-benchtime=100ms")
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}

	printSummary(grouped)

	if exportToJSON {
		exportJSON(results)
	}
}

func parseResults(output []byte) []BenchmarkResult {
	var results []BenchmarkResult
	benchPattern := regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)
	namePattern := regexp.MustCompile(`^([^_]+)_([^_]+)_(\w+)$`)

	seen := make(map[string][]BenchmarkResult)
	var order []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := benchPattern.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.ParseInt(matches[2], 10, 64)
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsOp, _ := strconv.ParseInt(matches[5], 10, 64)

		var category, scenario, framework string
		if parts := namePattern.FindStringSubmatch(name); parts != nil {
			category, scenario, framework = parts[1], parts[2], parts[3]
		} else if parts := strings.Split(name, "_"); len(parts) >= 2 {
			framework = parts[len(parts)-1]
			category = parts[0]
			scenario = strings.Join(parts[1:len(parts)-1], "_")
		}

		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(
			seen[name], BenchmarkResult{
				Name:       name,
				Framework:  framework,
				Category:   category,
				Scenario:   scenario,
				Iterations: iterations,
				NsPerOp:    nsPerOp,
				BytesPerOp: bytesPerOp,
				AllocsOp:   allocsOp,
			},
		)
	}

	for _, name := range order {
		runs := seen[name]

		var totalNs float64
		var totalBytes, totalAllocs int64
		for _, r := range runs {
			totalNs += r.NsPerOp
			totalBytes += r.BytesPerOp
			totalAllocs += r.AllocsOp
		}
		count := float64(len(runs))

		avg := runs[0]
		avg.NsPerOp = totalNs / count
		avg.BytesPerOp = int64(float64(totalBytes) / count)
		avg.AllocsOp = int64(float64(totalAllocs) / count)
		results = append(results, avg)
	}

	return results
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	var extra []string
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		if _, ok := groups[key]; !ok && !slices.Contains(categoryOrder, key) {
			extra = append(extra, key)
		}
		groups[key] = append(groups[key], r)
	}

	var ordered []CategoryResults
	for _, key := range append(slices.Clone(categoryOrder), extra...) {
		results, ok := groups[key]
		if !ok {
			continue
		}
		sort.Slice(
			results, func(i, j int) bool {
				return results[i].NsPerOp < results[j].NsPerOp
			},
		)
		ordered = append(ordered, CategoryResults{Category: key, Results: results})
	}

	return ordered
}

func printCategory(cat CategoryResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(formatCategoryTitle(cat.Category))
	t.AppendHeader(table.Row{"Framework", "", "Time/op", "Bytes/op", "Allocs/op", "Relative"})
	t.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		},
	)

	fastest := 0.0
	if len(cat.Results) > 0 {
		fastest = cat.Results[0].NsPerOp
	}

	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx slower", r.NsPerOp/fastest)
		}
		t.AppendRow(
			table.Row{
				colorFor(r.Framework).Sprint(r.Framework),
				makeBar(r.NsPerOp, fastest, 20),
				formatNs(r.NsPerOp),
				fmt.Sprintf("%d B", r.BytesPerOp),
				r.AllocsOp,
				text.Faint.Sprint(relative),
			},
		)
	}
	if len(cat.Results) == 0 {
		t.AppendRow(table.Row{"No results"})
	}

	t.Render()
	fmt.Println()
}

func colorFor(framework string) text.Colors {
	if c, ok := frameworkColors[framework]; ok {
		return c
	}
	return text.Colors{text.Reset}
}

func formatCategoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(cat, "_", " ")
}

func makeBar(value, fastest float64, width int) string {
	if fastest == 0 {
		return strings.Repeat("█", width)
	}

	ratio := min(value/fastest, 10)
	filled := max(min(int(float64(width)/ratio), width), 1)

	return text.FgGreen.Sprint(strings.Repeat("█", filled)) + text.FgRed.Sprint(strings.Repeat("░", width-filled))
}

func formatNs(ns float64) string {
	if ns >= 1_000_000 {
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	}
	if ns >= 1_000 {
		return fmt.Sprintf("%.2f µs", ns/1_000)
	}
	return fmt.Sprintf("%.0f ns", ns)
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		if len(cat.Results) > 0 {
			wins[cat.Results[0].Framework]++
		}
	}

	type frameworkWins struct {
		name string
		wins int
	}

	var sorted []frameworkWins
	for name, count := range wins {
		sorted = append(sorted, frameworkWins{name, count})
	}
	sort.Slice(
		sorted, func(i, j int) bool {
			if sorted[i].wins == sorted[j].wins {
				return sorted[i].name < sorted[j].name
			}
			return sorted[i].wins > sorted[j].wins
		},
	)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"#", "Framework", "Wins", ""})

	total := len(groups)
	for i, fw := range sorted {
		t.AppendRow(
			table.Row{
				i + 1,
				colorFor(fw.name).Sprint(fw.name),
				fmt.Sprintf("%d/%d", fw.wins, total),
				text.FgGreen.Sprint(strings.Repeat("█", fw.wins*3)),
			},
		)
	}
	t.Render()

	fmt.Println()
	fmt.Println(text.Bold.Sprint("Frameworks compared:"))
	fmt.Printf("  %s - This library (github.com/danpasecinic/quill)\n", colorFor("Quill").Sprint("Quill    "))
	fmt.Printf("  %s - Generics-based DI (github.com/samber/do)\n", colorFor("Do").Sprint("samber/do"))
	fmt.Printf("  %s - Reflection-based DI (go.uber.org/dig)\n", colorFor("Dig").Sprint("uber/dig "))
	fmt.Printf("  %s - Full application framework (go.uber.org/fx)\n", colorFor("Fx").Sprint("uber/fx  "))
	fmt.Println()
}

func exportJSON(results []BenchmarkResult) {
	output := struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{
		Benchmarks: results,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	_ = os.WriteFile("benchmark_results.json", data, 0644)
	fmt.Println(text.Faint.Sprint("Results exported to benchmark_results.json"))
}
