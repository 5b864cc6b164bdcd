package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-phrase/debug"
	"go-phrase/sequencer"
	"go-phrase/theme"
	"go-phrase/widgets"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputNewProject
	inputRenameProject
	inputRenameSave
)

const browserRows = 12

// browser lists library projects and their saves
type browser struct {
	lib *sequencer.Library
	mgr *sequencer.Manager

	projects []string
	saves    []sequencer.SaveInfo

	projectIdx int
	saveIdx    int
	column     int // 0=projects, 1=saves

	input       inputMode
	inputBuffer string

	confirmMsg    string
	confirmAction func() error

	status string
}

func newBrowser(lib *sequencer.Library, mgr *sequencer.Manager) *browser {
	b := &browser{lib: lib, mgr: mgr}
	b.refresh()
	// start on the open project
	for i, p := range b.projects {
		if p == mgr.ProjectName() {
			b.projectIdx = i
			b.refresh()
			break
		}
	}
	return b
}

// refresh reloads project and save lists
func (b *browser) refresh() {
	projects, err := b.lib.ListProjects()
	if err != nil {
		debug.Log("tui", "list projects: %v", err)
	}
	b.projects = projects
	if b.projectIdx >= len(b.projects) {
		b.projectIdx = max(0, len(b.projects)-1)
	}

	b.saves = nil
	if len(b.projects) > 0 {
		saves, err := b.lib.ListSaves(b.projects[b.projectIdx])
		if err != nil {
			debug.Log("tui", "list saves: %v", err)
		}
		b.saves = saves
	}
	if b.saveIdx >= len(b.saves) {
		b.saveIdx = max(0, len(b.saves)-1)
	}
}

// handleKey returns true when the browser should close
func (b *browser) handleKey(key string) bool {
	if b.confirmAction != nil {
		switch key {
		case "y", "Y":
			if err := b.confirmAction(); err != nil {
				b.status = err.Error()
			}
			b.confirmAction = nil
			b.refresh()
		case "n", "N", "esc", "q":
			b.confirmAction = nil
		}
		return false
	}

	if b.input != inputNone {
		switch key {
		case "enter":
			b.commitInput()
		case "esc":
			b.input = inputNone
			b.inputBuffer = ""
		case "backspace":
			if len(b.inputBuffer) > 0 {
				b.inputBuffer = b.inputBuffer[:len(b.inputBuffer)-1]
			}
		case "space":
			b.inputBuffer += " "
		default:
			if len(key) == 1 && key[0] >= 32 && key[0] < 127 && key != "/" && key != "\\" {
				b.inputBuffer += key
			}
		}
		return false
	}

	switch key {
	case "esc", "q", "b":
		return true
	case "h", "left":
		b.column = 0
	case "l", "right":
		if len(b.saves) > 0 {
			b.column = 1
		}
	case "j", "down":
		if b.column == 0 && b.projectIdx < len(b.projects)-1 {
			b.projectIdx++
			b.saveIdx = 0
			b.refresh()
		} else if b.column == 1 && b.saveIdx < len(b.saves)-1 {
			b.saveIdx++
		}
	case "k", "up":
		if b.column == 0 && b.projectIdx > 0 {
			b.projectIdx--
			b.saveIdx = 0
			b.refresh()
		} else if b.column == 1 && b.saveIdx > 0 {
			b.saveIdx--
		}
	case "enter":
		return b.loadSelected()
	case "n":
		b.input = inputNewProject
		b.inputBuffer = ""
	case "r":
		if b.column == 0 && len(b.projects) > 0 {
			b.input = inputRenameProject
			b.inputBuffer = b.projects[b.projectIdx]
		} else if b.column == 1 && len(b.saves) > 0 {
			b.input = inputRenameSave
			b.inputBuffer = b.saves[b.saveIdx].Name
		}
	case "d":
		b.deleteSelected()
	}
	return false
}

func (b *browser) commitInput() {
	name := strings.TrimSpace(b.inputBuffer)
	var err error

	switch b.input {
	case inputNewProject:
		if name != "" {
			if err = b.lib.CreateProject(name); err == nil {
				b.mgr.SetProjectName(name)
			}
		}
	case inputRenameProject:
		if name != "" && len(b.projects) > 0 {
			old := b.projects[b.projectIdx]
			if err = b.lib.RenameProject(old, name); err == nil && b.mgr.ProjectName() == old {
				b.mgr.SetProjectName(name)
			}
		}
	case inputRenameSave:
		// an empty name drops it
		if len(b.saves) > 0 {
			_, err = b.lib.RenameSave(b.projects[b.projectIdx], b.saves[b.saveIdx].Filename, name)
		}
	}
	if err != nil {
		b.status = err.Error()
	}

	b.input = inputNone
	b.inputBuffer = ""
	b.refresh()
}

// loadSelected loads the selected save, or the latest one from the
// projects column. Returns true on success.
func (b *browser) loadSelected() bool {
	if len(b.projects) == 0 {
		return false
	}
	project := b.projects[b.projectIdx]
	filename := ""
	if b.column == 1 && len(b.saves) > 0 {
		filename = b.saves[b.saveIdx].Filename
	}
	if err := b.mgr.LoadProject(b.lib, project, filename); err != nil {
		b.status = err.Error()
		return false
	}
	b.status = "loaded " + project
	return true
}

func (b *browser) deleteSelected() {
	if len(b.projects) == 0 {
		return
	}
	project := b.projects[b.projectIdx]
	if b.column == 1 && len(b.saves) > 0 {
		filename := b.saves[b.saveIdx].Filename
		b.confirmMsg = fmt.Sprintf("Delete save %s?", filename)
		b.confirmAction = func() error { return b.lib.DeleteSave(project, filename) }
		return
	}
	b.confirmMsg = fmt.Sprintf("Delete project %s and all its saves?", project)
	b.confirmAction = func() error { return b.lib.DeleteProject(project) }
}

func (b *browser) view(th *theme.Theme) string {
	var out strings.Builder
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	sel := lipgloss.NewStyle().Foreground(th.Cursor())
	rule := dim.Render(strings.Repeat("─", 49))

	project := b.mgr.ProjectName()
	if project == "" {
		project = "(none)"
	}
	out.WriteString(fmt.Sprintf("PROJECTS  open: %s\n\n", project))

	switch {
	case b.confirmAction != nil:
		out.WriteString(rule + "\n\n")
		out.WriteString(b.confirmMsg + "\n\n")
		out.WriteString("  [y] Yes    [n] No\n\n")
		out.WriteString(rule)
		return out.String()

	case b.input != inputNone:
		label := map[inputMode]string{
			inputNewProject:    "New project name",
			inputRenameProject: "Rename project to",
			inputRenameSave:    "Name this save",
		}[b.input]
		out.WriteString(rule + "\n\n")
		out.WriteString(fmt.Sprintf("%s: %s_\n\n", label, b.inputBuffer))
		out.WriteString(dim.Render("[enter] confirm  [esc] cancel") + "\n\n")
		out.WriteString(rule)
		return out.String()
	}

	out.WriteString("Projects                    Saves\n")
	out.WriteString(rule + "\n")

	rows := max(min(browserRows, max(1, len(b.projects))), min(browserRows, max(1, len(b.saves))))
	for row := 0; row < rows; row++ {
		left := strings.Repeat(" ", 22)
		if row < len(b.projects) {
			left = fmt.Sprintf("%s%-20s", marker(row == b.projectIdx, b.column == 0), truncate(b.projects[row], 20))
			if row == b.projectIdx {
				left = sel.Render(left)
			}
		}
		out.WriteString(left + "    ")

		if row < len(b.saves) {
			s := b.saves[row]
			display := s.Timestamp.Format("01-02 15:04:05")
			if s.Name != "" {
				display += " " + s.Name
			}
			right := marker(row == b.saveIdx, b.column == 1) + truncate(display, 24)
			if row == b.saveIdx && b.column == 1 {
				right = sel.Render(right)
			}
			out.WriteString(right)
		}
		out.WriteString("\n")
	}
	if len(b.projects) == 0 {
		out.WriteString(dim.Render("  (no projects yet)") + "\n")
	}

	out.WriteString("\n")
	out.WriteString(dim.Render(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "switch columns"},
			{Key: "j / k", Desc: "navigate list"},
			{Key: "enter", Desc: "load selected"},
			{Key: "n", Desc: "new project"},
			{Key: "r", Desc: "rename"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back"},
		}},
	})))
	if b.status != "" {
		out.WriteString("\n" + dim.Render(b.status))
	}
	return out.String()
}

func marker(selected, focused bool) string {
	switch {
	case selected && focused:
		return "> "
	case selected:
		return "* "
	}
	return "  "
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
