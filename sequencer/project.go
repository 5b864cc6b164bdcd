package sequencer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go-phrase/debug"
	"go-phrase/phrase"
)

const (
	projectVersion  = 1
	saveExt         = ".yaml"
	timestampLayout = "2006-01-02_15-04-05"
)

// Project is the saved form of a State
type Project struct {
	Version int         `yaml:"version"`
	Tempo   int         `yaml:"tempo"`
	Tracks  []TrackData `yaml:"tracks"`
}

// TrackData is one saved track. Only phrases that differ from an empty
// default phrase are listed.
type TrackData struct {
	Name       string        `yaml:"name,omitempty"`
	Channel    uint8         `yaml:"channel"`
	Muted      bool          `yaml:"muted,omitempty"`
	Solo       bool          `yaml:"solo,omitempty"`
	Polyphonic bool          `yaml:"polyphonic,omitempty"`
	Pattern    int           `yaml:"pattern"`
	Phrases    []phrase.Data `yaml:"phrases,omitempty"`
}

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Library stores projects as folders of timestamped YAML saves
type Library struct {
	Root     string
	Defaults Defaults

	now func() time.Time
}

// DefaultLibraryDir returns ~/.config/go-phrase/projects
func DefaultLibraryDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-phrase", "projects"), nil
}

// NewLibrary opens a library rooted at dir
func NewLibrary(dir string, d Defaults) *Library {
	return &Library{Root: dir, Defaults: d, now: time.Now}
}

// ProjectDir returns the path to a specific project
func (l *Library) ProjectDir(projectName string) string {
	return filepath.Join(l.Root, projectName)
}

// ListProjects returns all project folder names
func (l *Library) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (l *Library) ListSaves(projectName string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(l.ProjectDir(projectName))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.yaml or 2024-01-15_14-30-00_name.yaml
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, saveExt) {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, saveExt)
	if len(base) < len(timestampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if rest := base[len(timestampLayout):]; len(rest) > 1 && rest[0] == '_' {
		name = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes p as a new timestamped save and returns its filename
func (l *Library) Save(projectName string, p Project) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}

	dir := l.ProjectDir(projectName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create project dir")
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return "", errors.Wrap(err, "encode project")
	}

	filename := l.now().Format(timestampLayout) + saveExt
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", errors.Wrapf(err, "write %s", filename)
	}
	debug.Log("library", "saved %s/%s (%d bytes)", projectName, filename, len(data))
	return filename, nil
}

// Load reads a specific save, or the most recent if filename is empty
func (l *Library) Load(projectName, filename string) (Project, error) {
	if filename == "" {
		saves, err := l.ListSaves(projectName)
		if err != nil {
			return Project{}, err
		}
		if len(saves) == 0 {
			return Project{}, errors.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(l.ProjectDir(projectName), filename))
	if err != nil {
		return Project{}, errors.Wrapf(err, "load %s/%s", projectName, filename)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Project{}, errors.Wrapf(err, "parse %s/%s", projectName, filename)
	}
	if p.Version > projectVersion {
		return Project{}, errors.Errorf("%s/%s: project version %d is newer than %d", projectName, filename, p.Version, projectVersion)
	}
	debug.Log("library", "loaded %s/%s", projectName, filename)
	return p, nil
}

// LoadState loads a save and rebuilds a State from it
func (l *Library) LoadState(projectName, filename string) (*State, error) {
	p, err := l.Load(projectName, filename)
	if err != nil {
		return nil, err
	}
	s, err := p.State(l.Defaults)
	if err != nil {
		return nil, errors.Wrapf(err, "project %s", projectName)
	}
	s.ProjectName = projectName
	return s, nil
}

// CreateProject creates a new empty project folder
func (l *Library) CreateProject(name string) error {
	return os.MkdirAll(l.ProjectDir(sanitizeFilename(name)), 0755)
}

// DeleteSave deletes a specific save file
func (l *Library) DeleteSave(projectName, filename string) error {
	return os.Remove(filepath.Join(l.ProjectDir(projectName), filename))
}

// RenameSave changes the name part of a save, keeping its timestamp.
// An empty name drops it. Returns the new filename.
func (l *Library) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", errors.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(timestampLayout) + saveExt
	if newName != "" {
		newFilename = info.Timestamp.Format(timestampLayout) + "_" + sanitizeFilename(newName) + saveExt
	}

	dir := l.ProjectDir(projectName)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", err
	}
	return newFilename, nil
}

var filenameReplacer = strings.NewReplacer(
	" ", "-", "/", "-", "\\", "-", ":", "-",
	"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
)

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// DeleteProject deletes the entire project folder
func (l *Library) DeleteProject(name string) error {
	return os.RemoveAll(l.ProjectDir(name))
}

// RenameProject renames a project folder
func (l *Library) RenameProject(oldName, newName string) error {
	return os.Rename(l.ProjectDir(oldName), l.ProjectDir(sanitizeFilename(newName)))
}

// Project snapshots the manager's state, locking each track while it is read
func (m *Manager) Project() Project {
	m.mu.RLock()
	p := Project{Version: projectVersion, Tempo: m.S.Tempo}
	tracks := m.S.Tracks
	m.mu.RUnlock()

	for i, ts := range tracks {
		td := TrackData{
			Name:    ts.Name,
			Channel: ts.Channel,
			Muted:   ts.Muted,
			Solo:    ts.Solo,
		}
		m.devices[i].saveInto(&td)
		p.Tracks = append(p.Tracks, td)
	}
	return p
}

func (d *PhraseDevice) saveInto(td *TrackData) {
	d.mu.Lock()
	defer d.mu.Unlock()

	td.Polyphonic = d.state.Polyphonic
	td.Pattern = d.state.Pattern
	for _, p := range d.state.Phrases {
		data := p.Data()
		if data.NoteData == "" && !p.HasTriggers() && data.Resolution == phrase.DefaultResolution && data.Length == 1 {
			continue
		}
		td.Phrases = append(td.Phrases, data)
	}
}

// State rebuilds runtime state. Phrases missing from the save start from d.
func (p Project) State(d Defaults) (*State, error) {
	s := NewState(d)
	if p.Tempo >= MinTempo && p.Tempo <= MaxTempo {
		s.Tempo = p.Tempo
	}
	for i, td := range p.Tracks {
		if i >= NumTracks {
			break
		}
		ts := s.Tracks[i]
		ts.Name = td.Name
		if td.Channel >= 1 && td.Channel <= 16 {
			ts.Channel = td.Channel
		}
		ts.Muted = td.Muted
		ts.Solo = td.Solo
		ts.Phrases.Polyphonic = td.Polyphonic

		for _, pd := range td.Phrases {
			if pd.Bank < 0 || pd.Bank >= phrase.NumBanks || pd.Index < 0 || pd.Index >= phrase.PatternsPerBank {
				return nil, errors.Errorf("track %d: no slot for bank %d index %d", i+1, pd.Bank, pd.Index)
			}
			ph, err := phrase.FromData(pd)
			if err != nil {
				return nil, errors.Wrapf(err, "track %d %s", i+1, phrase.PatternID(pd.Bank, pd.Index))
			}
			ts.Phrases.Phrases[Slot(pd.Bank, pd.Index)] = ph
		}

		ts.Phrases.Phrases[0].SetActive(false)
		if td.Pattern >= 0 && td.Pattern < NumPatterns {
			ts.Phrases.Pattern = td.Pattern
			ts.Phrases.Editing = td.Pattern
		}
		ts.Phrases.Phrases[ts.Phrases.Pattern].SetActive(true)
	}
	return s, nil
}

// SaveProject saves the current state into the library under name
func (m *Manager) SaveProject(l *Library, name string) (string, error) {
	if name == "" {
		name = "untitled"
	}
	filename, err := l.Save(name, m.Project())
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.S.ProjectName = name
	m.mu.Unlock()
	return filename, nil
}

// LoadProject replaces the current state with a save (latest if filename is empty)
func (m *Manager) LoadProject(l *Library, name, filename string) error {
	s, err := l.LoadState(name, filename)
	if err != nil {
		return err
	}
	m.ReplaceState(s)
	return nil
}
