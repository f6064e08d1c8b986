package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thruflo/ttsdash/internal/api"
	"github.com/thruflo/ttsdash/internal/files"
	"github.com/thruflo/ttsdash/internal/inference"
	"github.com/thruflo/ttsdash/internal/logstream"
)

// ViewState holds the data the tab views render. The dashboard owns it and
// the CLI updates it through the Dashboard setters.
type ViewState struct {
	Profile *api.Profile

	Models      []inference.Model
	Selected    int
	LoadedModel string
	LastSpeech  string

	TrainingActive  bool
	TrainingDataset string
	TrainingEpochs  int

	DatasetStage string
	Files        []files.Descriptor
	TotalSize    string
}

// SelectedModel returns the highlighted catalog entry.
func (s ViewState) SelectedModel() (inference.Model, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Models) {
		return inference.Model{}, false
	}
	return s.Models[s.Selected], true
}

// InferenceView lists the model catalog and the synthesis prompt.
type InferenceView struct{}

// Render renders the inference tab.
func (v *InferenceView) Render(state ViewState, input string, width int) []string {
	lines := []string{TitleStyle.Render("Models"), ""}
	for i, m := range state.Models {
		marker := "  "
		name := m.Name
		if i == state.Selected {
			marker = "> "
			name = SelectedStyle.Render(name)
		}
		if m.ID == state.LoadedModel {
			name += " " + SuccessStyle.Render("(loaded)")
		}
		lines = append(lines, marker+name)
		for _, l := range WrapText(m.Description, max(10, width-6)) {
			lines = append(lines, "    "+MutedStyle.Render(l))
		}
	}

	lines = append(lines, "", TitleStyle.Render("Text"))
	lines = append(lines, "> "+input)
	if state.LastSpeech != "" {
		lines = append(lines, "", state.LastSpeech)
	}
	lines = append(lines, "", MutedStyle.Render("[↑/↓] select  [l]oad  [e]dit text  [enter] synthesize"))
	return lines
}

// TailView renders the newest lines of a log buffer. It follows the end of
// the buffer unless scrolled back.
type TailView struct {
	buf      *logstream.Buffer
	maxLines int
	offset   int
}

// NewTailView creates a TailView over buf. maxLines caps how much history
// can be scrolled back through; values below 1 mean unlimited.
func NewTailView(buf *logstream.Buffer, maxLines int) *TailView {
	return &TailView{buf: buf, maxLines: maxLines}
}

// ScrollUp moves the window n lines towards older entries.
func (v *TailView) ScrollUp(n int) {
	v.offset += n
}

// ScrollDown moves the window n lines towards newer entries.
func (v *TailView) ScrollDown(n int) {
	v.offset = max(0, v.offset-n)
}

// Follow jumps back to the newest line.
func (v *TailView) Follow() {
	v.offset = 0
}

// Following reports whether the view is pinned to the newest line.
func (v *TailView) Following() bool {
	return v.offset == 0
}

// Render renders height lines of log output plus a header and footer.
func (v *TailView) Render(width, height int) []string {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	lines := v.buf.Lines()
	if v.maxLines > 0 && len(lines) > v.maxLines {
		lines = lines[len(lines)-v.maxLines:]
	}

	end := len(lines)
	if v.offset > 0 {
		v.offset = min(v.offset, max(0, len(lines)-height))
		end = len(lines) - v.offset
	}
	start := max(0, end-height)

	result := make([]string, 0, height+2)
	result = append(result, MutedStyle.Render("─── Logs ")+MutedStyle.Render(strings.Repeat("─", max(0, width-9))))
	for _, line := range lines[start:end] {
		result = append(result, Truncate(line, width))
	}
	for len(result) < height+1 {
		result = append(result, "")
	}

	footer := fmt.Sprintf("─── %d lines ", len(lines))
	if !v.Following() {
		footer = fmt.Sprintf("─── %d lines (scrolled, [f] to follow) ", len(lines))
	}
	result = append(result, MutedStyle.Render(footer))
	return result
}

// TrainingView shows training status above the log tail.
type TrainingView struct {
	tail *TailView
}

// Render renders the training tab.
func (v *TrainingView) Render(state ViewState, width, height int) []string {
	status := MutedStyle.Render("idle")
	if state.TrainingActive {
		status = SuccessStyle.Render("active")
	}

	lines := KeyValues("",
		KV("status", status),
		KV("dataset", orDash(state.TrainingDataset)),
		KV("epochs", epochsText(state.TrainingEpochs)),
	)
	lines = append(lines, "")
	lines = append(lines, v.tail.Render(width, max(3, height-len(lines)-3))...)
	lines = append(lines, MutedStyle.Render("[s]top  [↑/↓] scroll  [f]ollow"))
	return lines
}

// DatasetView lists the collected files.
type DatasetView struct{}

// Render renders the dataset tab.
func (v *DatasetView) Render(state ViewState, width int) []string {
	lines := KeyValues("", KV("stage", orDash(state.DatasetStage)))
	lines = append(lines, "")

	if len(state.Files) == 0 {
		lines = append(lines, MutedStyle.Render("No files uploaded."))
		return lines
	}

	rows := make([][]string, 0, len(state.Files))
	for i, f := range state.Files {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			Truncate(f.Name, max(10, width/2)),
			f.HumanSize(),
			f.MimeType,
		})
	}
	lines = append(lines, Table([]string{"#", "File", "Size", "Type"}, rows)...)
	lines = append(lines, fmt.Sprintf("%d file(s), %s total", len(state.Files), state.TotalSize))
	return lines
}

// ProfileView shows the signed-in account.
type ProfileView struct{}

// Render renders the profile tab.
func (v *ProfileView) Render(state ViewState, width int) []string {
	if state.Profile == nil {
		return []string{MutedStyle.Render("Not signed in.")}
	}
	p := state.Profile
	return KeyValues("",
		KV("name", strings.TrimSpace(p.Firstname+" "+p.Lastname)),
		KV("email", p.Email),
		KV("id", p.ID),
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func epochsText(n int) string {
	if n <= 0 {
		return "-"
	}
	return strconv.Itoa(n)
}
