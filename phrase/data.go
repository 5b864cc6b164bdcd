package phrase

// Data is the persisted form of a StepPhrase
type Data struct {
	Bank       int        `yaml:"bank" json:"bank"`
	Index      int        `yaml:"index" json:"index"`
	Resolution Resolution `yaml:"resolution" json:"resolution"`
	Length     int        `yaml:"length" json:"length"`
	NoteData   string     `yaml:"noteData,omitempty" json:"noteData,omitempty"`
}

// Data captures everything needed to rebuild the phrase
func (p *StepPhrase) Data() Data {
	return Data{
		Bank:       p.bank,
		Index:      p.index,
		Resolution: p.resolution,
		Length:     p.length,
		NoteData:   p.NoteData(),
	}
}

// FromData rebuilds a phrase. Resolution and length are applied before the
// notes so every record lands on the saved grid.
func FromData(d Data) (*StepPhrase, error) {
	p := New(d.Bank, d.Index)
	if err := p.ChangeResolution(d.Resolution); err != nil {
		return nil, err
	}
	if err := p.ChangeLength(d.Length); err != nil {
		return nil, err
	}
	if err := p.SetNoteData(d.NoteData); err != nil {
		return nil, err
	}
	return p, nil
}
