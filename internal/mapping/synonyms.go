package mapping

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Synonyms maps a canonical field description to the alternate label texts
// analysts have used for it. Lookups are case-insensitive.
type Synonyms map[string][]string

// LoadSynonyms reads a synonym list from a YAML file of the form:
//
//	effective gross income:
//	  - total income
//	  - gross revenue
func LoadSynonyms(path string) (Synonyms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "mapping: read synonyms %s", path)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "mapping: parse synonyms %s", path)
	}

	syn := make(Synonyms, len(raw))
	for desc, alts := range raw {
		key := strings.ToLower(strings.TrimSpace(desc))
		for _, a := range alts {
			syn[key] = append(syn[key], strings.ToLower(strings.TrimSpace(a)))
		}
	}
	return syn, nil
}

// Lookup returns the synonyms registered for a description.
func (s Synonyms) Lookup(description string) []string {
	if s == nil {
		return nil
	}
	return s[strings.ToLower(strings.TrimSpace(description))]
}
