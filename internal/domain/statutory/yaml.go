package statutory

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type ruleSetFile struct {
	RuleSets []RuleSet `yaml:"rule_sets"`
}

// DecodeRuleSetsYAML reads a document of the form
//
//	rule_sets:
//	  - version: ke-2024-10
//	    effective_from: 2024-10-01
//	    ...
func DecodeRuleSetsYAML(r io.Reader) ([]RuleSet, error) {
	var doc ruleSetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.RuleSets) == 0 {
		return nil, fmt.Errorf("%w: file declares no rule_sets", ErrInvalidRuleSet)
	}
	for _, set := range doc.RuleSets {
		if err := set.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.RuleSets, nil
}

func EncodeRuleSetsYAML(w io.Writer, sets []RuleSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ruleSetFile{RuleSets: sets}); err != nil {
		return err
	}
	return enc.Close()
}

// FileSource reads rule sets from a YAML file on every Load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(context.Context) ([]RuleSet, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.Path, err)
	}
	defer f.Close()
	sets, err := DecodeRuleSetsYAML(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return sets, nil
}
