package sequencer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-phrase/phrase"
)

func newTestLibrary(t *testing.T) *Library {
	l := NewLibrary(t.TempDir(), DefaultDefaults)
	clock := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return l
}

func TestParseSaveName(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		name string
	}{
		{"2024-01-15_14-30-00.yaml", true, ""},
		{"2024-01-15_14-30-00_verse.yaml", true, "verse"},
		{"2024-01-15_14-30-00.json", false, ""},
		{"notes.yaml", false, ""},
	}
	for _, tc := range tests {
		info, ok := parseSaveName(tc.in)
		if ok != tc.ok || info.Name != tc.name {
			t.Errorf("parseSaveName(%q) = %+v, %v", tc.in, info, ok)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l := newTestLibrary(t)
	m := NewManager(NewState(DefaultDefaults), nil)
	m.SetTempo(98)
	m.ToggleMute(1)

	d := m.Device(1)
	d.SelectEditing(Slot(2, 4))
	d.Coarser()
	d.DoubleLength()
	d.ToggleStep()
	d.ToggleFlag(phrase.FlagSlide)
	d.QueuePattern(Slot(2, 4), 0)

	filename, err := m.SaveProject(l, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if filename != "2024-01-15_14-30-01.yaml" {
		t.Errorf("filename %q", filename)
	}

	raw, err := os.ReadFile(filepath.Join(l.ProjectDir("demo"), filename))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "resolution: eighth-triplet") {
		t.Errorf("resolution not saved by name:\n%s", raw)
	}

	loaded := NewManager(NewState(DefaultDefaults), nil)
	if err := loaded.LoadProject(l, "demo", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, tempo := loaded.GetState(); tempo != 98 {
		t.Errorf("tempo %d", tempo)
	}
	if !loaded.S.Tracks[1].Muted || loaded.S.ProjectName != "demo" {
		t.Error("track state lost")
	}

	ld := loaded.Device(1)
	if ld.CurrentPattern() != Slot(2, 4) {
		t.Errorf("pattern %d", ld.CurrentPattern())
	}
	p := ld.Phrase(Slot(2, 4))
	if p.Resolution() != phrase.EighthTriplet || p.Length() != 2 || !p.Active() {
		t.Errorf("phrase %s res %v length %d active %v", p.ID(), p.Resolution(), p.Length(), p.Active())
	}
	tr, ok := p.TriggerAtStep(0, 60)
	if !ok || !tr.Flags.Has(phrase.FlagSlide) {
		t.Errorf("trigger %v", tr)
	}
	if ld.Phrase(0).Active() {
		t.Error("slot 0 still active")
	}
}

func TestSaveSkipsEmptyPhrases(t *testing.T) {
	m := NewManager(NewState(DefaultDefaults), nil)
	m.Device(0).Phrase(7).TriggerOn(0, 60, 0.25, 1, 0)

	p := m.Project()
	if len(p.Tracks) != NumTracks {
		t.Fatalf("%d tracks", len(p.Tracks))
	}
	if n := len(p.Tracks[0].Phrases); n != 1 || p.Tracks[0].Phrases[0].Index != 7 {
		t.Errorf("saved phrases %+v", p.Tracks[0].Phrases)
	}
	if len(p.Tracks[1].Phrases) != 0 {
		t.Error("empty track saved phrases")
	}
}

func TestListSavesNewestFirst(t *testing.T) {
	l := newTestLibrary(t)
	for i := 0; i < 3; i++ {
		if _, err := l.Save("song", Project{Version: projectVersion}); err != nil {
			t.Fatal(err)
		}
	}
	saves, err := l.ListSaves("song")
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 3 || saves[0].Filename != "2024-01-15_14-30-03.yaml" {
		t.Errorf("saves %+v", saves)
	}
}

func TestLoadPicksLatest(t *testing.T) {
	l := newTestLibrary(t)
	l.Save("song", Project{Version: projectVersion, Tempo: 100})
	l.Save("song", Project{Version: projectVersion, Tempo: 140})

	p, err := l.Load("song", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Tempo != 140 {
		t.Errorf("loaded tempo %d", p.Tempo)
	}
}

func TestLoadErrors(t *testing.T) {
	l := newTestLibrary(t)
	if _, err := l.Load("missing", ""); err == nil {
		t.Error("expected error for empty project")
	}

	name, err := l.Save("future", Project{Version: projectVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load("future", name); err == nil || !strings.Contains(err.Error(), "newer") {
		t.Errorf("version error = %v", err)
	}
}

func TestProjectStateRejectsBadData(t *testing.T) {
	bad := Project{Tracks: []TrackData{{Phrases: []phrase.Data{{Bank: 9}}}}}
	if _, err := bad.State(DefaultDefaults); err == nil {
		t.Error("bank out of range accepted")
	}

	bad = Project{Tracks: []TrackData{{Phrases: []phrase.Data{{Resolution: phrase.Sixteenth, Length: 3}}}}}
	if _, err := bad.State(DefaultDefaults); err == nil {
		t.Error("length 3 accepted")
	}
}

func TestProjectStateIgnoresOutOfRangeTempo(t *testing.T) {
	s, err := Project{Tempo: 999}.State(DefaultDefaults)
	if err != nil {
		t.Fatal(err)
	}
	if s.Tempo != 120 {
		t.Errorf("tempo %d", s.Tempo)
	}
}

func TestRenameAndDeleteSave(t *testing.T) {
	l := newTestLibrary(t)
	name, _ := l.Save("song", Project{Version: projectVersion})

	renamed, err := l.RenameSave("song", name, "big chorus?")
	if err != nil {
		t.Fatal(err)
	}
	if renamed != "2024-01-15_14-30-01_big-chorus.yaml" {
		t.Errorf("renamed to %q", renamed)
	}
	saves, _ := l.ListSaves("song")
	if len(saves) != 1 || saves[0].Name != "big-chorus" {
		t.Errorf("saves %+v", saves)
	}

	if err := l.DeleteSave("song", renamed); err != nil {
		t.Fatal(err)
	}
	if saves, _ := l.ListSaves("song"); len(saves) != 0 {
		t.Errorf("saves after delete %+v", saves)
	}
}

func TestProjectFolders(t *testing.T) {
	l := newTestLibrary(t)
	if err := l.CreateProject("b side"); err != nil {
		t.Fatal(err)
	}
	if err := l.CreateProject("a"); err != nil {
		t.Fatal(err)
	}
	if err := l.RenameProject("a", "c"); err != nil {
		t.Fatal(err)
	}
	projects, err := l.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(projects, ",") != "b-side,c" {
		t.Errorf("projects %v", projects)
	}
	if err := l.DeleteProject("c"); err != nil {
		t.Fatal(err)
	}
	if projects, _ := l.ListProjects(); len(projects) != 1 {
		t.Errorf("projects %v", projects)
	}
}
