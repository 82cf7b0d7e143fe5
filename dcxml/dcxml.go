// Package dcxml extracts Dublin Core field values from the XML package
// produced by the external packaging tool. Both DSpace encodings are
// understood: <dim:field mdschema=... element=... qualifier=...> and
// <dcvalue element=... qualifier=...>. Repeated elements keep their document
// order and all duplicates.
package dcxml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Fields maps the bibliographic fields the exporter cares about to their
// ordered value lists.
type Fields struct {
	Title       []string
	Description []string
	Rights      []string
	Licence     []string
	Publisher   []string
	Relation    []string
	GrantNumber []string
	DOI         []string
	RMID        []string
}

// Parse walks the package XML and collects field values.
func Parse(r io.Reader) (*Fields, error) {
	dec := xml.NewDecoder(r)
	var fields Fields
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse package xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		local := start.Name.Local
		if local != "field" && local != "dcvalue" {
			continue
		}
		var element, qualifier string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "element":
				element = a.Value
			case "qualifier":
				qualifier = a.Value
			}
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return nil, fmt.Errorf("parse package xml: %w", err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		fields.add(element, qualifier, value)
	}
	return &fields, nil
}

func (f *Fields) add(element, qualifier, value string) {
	switch element {
	case "title":
		f.Title = append(f.Title, value)
	case "description":
		f.Description = append(f.Description, value)
	case "rights":
		if qualifier == "license" || qualifier == "licence" {
			f.Licence = append(f.Licence, value)
		} else {
			f.Rights = append(f.Rights, value)
		}
	case "publisher":
		f.Publisher = append(f.Publisher, value)
	case "relation":
		if qualifier == "grantnumber" {
			f.GrantNumber = append(f.GrantNumber, value)
		} else {
			f.Relation = append(f.Relation, value)
		}
	case "identifier":
		switch qualifier {
		case "doi":
			f.DOI = append(f.DOI, value)
		case "rmid":
			f.RMID = append(f.RMID, value)
		}
	}
}
