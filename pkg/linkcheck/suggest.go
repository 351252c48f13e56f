package linkcheck

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/htmlfix/pkg/defect"
)

const maxExamples = 3

// Suggestion names a defect that explains some of the broken links
type Suggestion struct {
	Defect   string   `json:"defect"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// Summary aggregates a link report
type Summary struct {
	Total        int          `json:"total"`
	Broken       int          `json:"broken"`
	ByStatus     map[int]int  `json:"by_status"`
	Suggestions  []Suggestion `json:"suggestions"`
	Unclassified []Record     `json:"unclassified"`
}

// probe wraps a link the way pages reference it so attribute-based defects see it
func probe(link string) string {
	return fmt.Sprintf(`<a href="%s"><img src="%s"></a>`, link, link)
}

// 🔎 Summarize counts broken links and assigns each to the first defect of reg
// that would rewrite it. Broken links no defect recognizes are unclassified.
func Summarize(records []Record, reg *defect.Registry) *Summary {
	s := &Summary{ByStatus: map[int]int{}}
	byDefect := map[string]*Suggestion{}

	for _, r := range records {
		s.Total++
		s.ByStatus[r.Status]++
		if !r.Broken() {
			continue
		}
		s.Broken++

		name := classify(r.URL, reg)
		if name == "" {
			s.Unclassified = append(s.Unclassified, r)
			continue
		}
		sug, ok := byDefect[name]
		if !ok {
			sug = &Suggestion{Defect: name}
			byDefect[name] = sug
		}
		sug.Count++
		if len(sug.Examples) < maxExamples {
			sug.Examples = append(sug.Examples, r.URL)
		}
	}

	for _, sug := range byDefect {
		s.Suggestions = append(s.Suggestions, *sug)
	}
	sort.Slice(s.Suggestions, func(i, j int) bool {
		if s.Suggestions[i].Count != s.Suggestions[j].Count {
			return s.Suggestions[i].Count > s.Suggestions[j].Count
		}
		return s.Suggestions[i].Defect < s.Suggestions[j].Defect
	})
	return s
}

func classify(link string, reg *defect.Registry) string {
	if reg == nil {
		return ""
	}
	p := probe(link)
	for _, d := range reg.All() {
		if d.Detect(p) > 0 {
			return d.Name
		}
	}
	return ""
}

// 📊 RenderSummary writes s as tables followed by the suggested fixers
func RenderSummary(w io.Writer, s *Summary) error {
	statuses := make([]int, 0, len(s.ByStatus))
	for status := range s.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)

	data := pterm.TableData{{"Status", "Links"}}
	for _, status := range statuses {
		label := strconv.Itoa(status)
		if status == 0 {
			label = "error"
		}
		data = append(data, []string{label, strconv.Itoa(s.ByStatus[status])})
	}
	data = append(data, []string{"total", strconv.Itoa(s.Total)})
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering status table: %w", err)
	}
	fmt.Fprintln(w, table)

	if s.Broken == 0 {
		fmt.Fprintln(w, pterm.Success.Sprint("no broken links"))
		return nil
	}

	if len(s.Suggestions) > 0 {
		data := pterm.TableData{{"Fixer", "Broken links", "Examples"}}
		for _, sug := range s.Suggestions {
			examples := ""
			for i, ex := range sug.Examples {
				if i > 0 {
					examples += ", "
				}
				examples += ex
			}
			data = append(data, []string{sug.Defect, strconv.Itoa(sug.Count), examples})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Errorf("rendering suggestion table: %w", err)
		}
		fmt.Fprintln(w, table)
		fmt.Fprintln(w, pterm.Info.Sprintf("next: htmlfix fix %s", s.Suggestions[0].Defect))
	}

	if n := len(s.Unclassified); n > 0 {
		fmt.Fprintln(w, pterm.Warning.Sprintf("%d broken links match no known defect", n))
	}
	return nil
}
