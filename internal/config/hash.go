package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type hashView struct {
	Global   Global            `json:"global"`
	Titles   map[string]string `json:"titles"`
	Skip     []string          `json:"skip"`
	External []string          `json:"external"`
	Sections []SectionSpec     `json:"sections"`
}

// Hash returns a stable hex sha256 over the parsed configuration. Map keys
// are sorted by encoding/json, so equal configurations hash equally.
func (s *Spec) Hash() string {
	if s == nil {
		return ""
	}
	data, err := json.Marshal(hashView{
		Global:   s.Global,
		Titles:   s.Titles,
		Skip:     s.Dirs.Skipped(),
		External: s.Dirs.External(),
		Sections: s.Sections,
	})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
