package services

import "github.com/lux23/settings-service/internal/config"

// SupportLine is one entry of the static support-line catalog.
type SupportLine struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Custom bool   `json:"custom"`
}

// SupportLineCatalog is the ordered, fixed list of support lines that rotation
// cycles through. Its length is the rotation modulus.
type SupportLineCatalog struct {
	lines []SupportLine
}

func NewSupportLineCatalog(specs []config.SupportLineSpec) *SupportLineCatalog {
	lines := make([]SupportLine, len(specs))
	for i, spec := range specs {
		lines[i] = SupportLine{
			Index:  i,
			Name:   spec.Name,
			Phone:  SanitizePhone(spec.Phone),
			Custom: spec.Phone == "",
		}
	}
	return &SupportLineCatalog{lines: lines}
}

func (c *SupportLineCatalog) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the catalog.
func (c *SupportLineCatalog) Lines() []SupportLine {
	out := make([]SupportLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Normalize maps any stored index into [0, Len()-1].
func (c *SupportLineCatalog) Normalize(index int) int {
	n := len(c.lines)
	if n == 0 {
		return 0
	}
	index %= n
	if index < 0 {
		index += n
	}
	return index
}

// Next is the index rotation advances to from index.
func (c *SupportLineCatalog) Next(index int) int {
	return c.Normalize(c.Normalize(index) + 1)
}

// Active resolves the line at index. The custom entry takes its phone from
// the record's selected line phone.
func (c *SupportLineCatalog) Active(index int, linePhone string) (SupportLine, bool) {
	if len(c.lines) == 0 {
		return SupportLine{}, false
	}
	line := c.lines[c.Normalize(index)]
	if line.Custom {
		line.Phone = linePhone
	}
	return line, true
}

// IndexOfPhone finds the catalog entry whose phone matches, falling back to
// the custom entry. It returns -1 when there is neither.
func (c *SupportLineCatalog) IndexOfPhone(phone string) int {
	phone = SanitizePhone(phone)
	custom := -1
	for _, line := range c.lines {
		if !line.Custom && line.Phone == phone {
			return line.Index
		}
		if line.Custom && custom < 0 {
			custom = line.Index
		}
	}
	return custom
}
