package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lapswim/lapswim/schema"
	"golang.org/x/term"
)

// Summary is the plain dry-run preview of a schedule document.
type Summary struct {
	GeneratedAt string          `json:"generatedAt"`
	Days        []string        `json:"days"`
	Sessions    int             `json:"sessions"`
	Branches    []BranchSummary `json:"branches"`
}

// BranchSummary counts the merged sessions for a branch.
type BranchSummary struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Days     int    `json:"days"`
	Sessions int    `json:"sessions"`
}

// Summarize counts the sessions in doc.
func Summarize(doc *schema.Document) Summary {
	s := Summary{
		GeneratedAt: doc.GeneratedAt,
		Days:        doc.Days,
		Sessions:    doc.Sessions(),
		Branches:    make([]BranchSummary, 0, len(doc.Branches)),
	}
	for _, b := range doc.Branches {
		bs := BranchSummary{
			Key:  b.Key,
			Name: b.Name,
			Days: len(b.Days),
		}
		for _, day := range b.Days {
			bs.Sessions += len(b.Schedule[day])
		}
		s.Branches = append(s.Branches, bs)
	}
	return s
}

// IsTerminal returns true if f is a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	emptyStyle  = cellStyle.Foreground(lipgloss.Color("#6b7280"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)

// Preview writes a dry-run preview of doc to w, as a table if styled, or as
// a JSON summary otherwise.
func Preview(w io.Writer, doc *schema.Document, styled bool) error {
	s := Summarize(doc)
	if !styled {
		buf, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", buf)
		return err
	}

	rows := make([][]string, 0, len(s.Branches))
	for _, b := range s.Branches {
		rows = append(rows, []string{b.Key, b.Name, strconv.Itoa(b.Days), strconv.Itoa(b.Sessions)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("KEY", "BRANCH", "DAYS", "SESSIONS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(s.Branches) && s.Branches[row].Sessions == 0:
				return emptyStyle
			default:
				return cellStyle
			}
		})

	var span string
	if n := len(s.Days); n != 0 {
		span = fmt.Sprintf(" from %s to %s", s.Days[0], s.Days[n-1])
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n%d sessions over %d days%s (dry run, nothing written)\n",
		titleStyle.Render("schedule generated at "+s.GeneratedAt), t.Render(), s.Sessions, len(s.Days), span)
	return err
}
