package extract

import "regexp"

// PublisherFlag records how confident we are that the item's publisher is the
// configured restricted publisher.
type PublisherFlag string

const (
	PublisherNone      PublisherFlag = ""
	PublisherMaybe     PublisherFlag = "maybe"
	PublisherConfirmed PublisherFlag = "confirmed"
)

// PublisherDetector matches the restricted publisher name pattern against
// bibliographic fields.
type PublisherDetector struct {
	re *regexp.Regexp
}

// NewPublisherDetector compiles the configured restricted-publisher pattern.
func NewPublisherDetector(pattern string) (*PublisherDetector, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &PublisherDetector{re: re}, nil
}

// Detect returns Confirmed when the publisher field itself names the
// restricted publisher, Maybe when the name only appears in description or
// rights text, and None otherwise.
func (d *PublisherDetector) Detect(publishers, descriptions, rights []string) PublisherFlag {
	for _, v := range publishers {
		if d.re.MatchString(v) {
			return PublisherConfirmed
		}
	}
	for _, vs := range [][]string{descriptions, rights} {
		for _, v := range vs {
			if d.re.MatchString(v) {
				return PublisherMaybe
			}
		}
	}
	return PublisherNone
}
