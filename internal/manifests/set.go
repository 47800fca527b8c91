package manifests

import "slices"

// Encoding of an entry's content.
type Encoding string

// EncodingYAML is a multi-document YAML stream.
const EncodingYAML Encoding = "yaml"

// Entry is one manifest file.
type Entry struct {
	Name     string
	Content  []byte
	Encoding Encoding
}

// Filename is the entry's file name inside the manifests directory.
func (e Entry) Filename() string {
	return e.Name + "." + string(e.Encoding)
}

// Set is an ordered collection of entries with unique names.
type Set struct {
	entries []Entry
}

func (s *Set) add(e Entry) {
	s.entries = append(s.entries, e)
}

// Names returns entry names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the entries in order.
func (s *Set) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		e.Content = slices.Clone(e.Content)
		out[i] = e
	}
	return out
}

// Get returns the entry with the given name.
func (s *Set) Get(name string) (Entry, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			e.Content = slices.Clone(e.Content)
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (s *Set) Len() int { return len(s.entries) }
