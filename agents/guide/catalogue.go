package guide

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topic names one change guide.
type Topic string

const (
	TopicAuthorizedPerson Topic = "authorized_person_change"
	TopicPaymentAccount   Topic = "payment_account_change"
	TopicOfficialSeal     Topic = "official_seal_change"

	// TopicUnknown is selected when no guide matches. It has no entry.
	TopicUnknown Topic = "unknown"
)

// ErrUnknownTopic is returned when a topic has no catalogue entry.
var ErrUnknownTopic = errors.New("guide: unknown topic")

// Entry is one change guide.
type Entry struct {
	Topic      Topic  `yaml:"topic"`
	Title      string `yaml:"title"`
	Summary    string `yaml:"summary"`
	Attachment string `yaml:"attachment"`
	Guidance   string `yaml:"guidance"`
}

// Catalogue maps topics to guides in declaration order.
type Catalogue struct {
	entries []Entry
	byTopic map[Topic]Entry
}

//go:embed guides.yaml
var defaultGuides []byte

// DefaultCatalogue returns the built-in guides.
func DefaultCatalogue() *Catalogue {
	c, err := ParseCatalogue(defaultGuides)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalogue decodes a YAML guide catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var doc struct {
		Topics []Entry `yaml:"topics"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("guide: parse catalogue: %w", err)
	}
	if len(doc.Topics) == 0 {
		return nil, errors.New("guide: catalogue has no topics")
	}

	c := &Catalogue{byTopic: make(map[Topic]Entry, len(doc.Topics))}
	for _, e := range doc.Topics {
		switch {
		case e.Topic == "" || e.Topic == TopicUnknown:
			return nil, fmt.Errorf("guide: invalid topic %q", e.Topic)
		case strings.TrimSpace(e.Guidance) == "":
			return nil, fmt.Errorf("guide: topic %q has no guidance", e.Topic)
		}
		if _, dup := c.byTopic[e.Topic]; dup {
			return nil, fmt.Errorf("guide: duplicate topic %q", e.Topic)
		}
		e.Guidance = strings.TrimSpace(e.Guidance)
		c.entries = append(c.entries, e)
		c.byTopic[e.Topic] = e
	}
	return c, nil
}

// Topics returns the catalogue topics in declaration order.
func (c *Catalogue) Topics() []Topic {
	out := make([]Topic, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Topic
	}
	return out
}

// Entries returns every guide in declaration order.
func (c *Catalogue) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the guide for topic.
func (c *Catalogue) Lookup(topic Topic) (Entry, error) {
	e, ok := c.byTopic[topic]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return e, nil
}
