// Package tdesc parses target description documents in the XML format used
// by remote debugging stubs. A target description enumerates the register
// features the target advertises; architecture constructors validate it
// before accepting a register layout.
package tdesc

import (
	"encoding/xml"
	"fmt"
)

// Description is a parsed target description.
type Description struct {
	XMLName      xml.Name  `xml:"target"`
	Architecture string    `xml:"architecture"`
	Features     []Feature `xml:"feature"`
}

// Feature is one named register feature of a target description.
type Feature struct {
	Name      string     `xml:"name,attr"`
	Registers []Register `xml:"reg"`
}

// Register describes a single register advertised by a feature.
type Register struct {
	Name    string `xml:"name,attr"`
	Bitsize int    `xml:"bitsize,attr"`
	Regnum  int    `xml:"regnum,attr"`
	Type    string `xml:"type,attr"`
}

// Parse decodes a target description document.
func Parse(data []byte) (*Description, error) {
	var desc Description
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("malformed target description: %v", err)
	}
	return &desc, nil
}

// Feature returns the feature with the given name, or nil if the
// description does not advertise it.
func (desc *Description) Feature(name string) *Feature {
	for i := range desc.Features {
		if desc.Features[i].Name == name {
			return &desc.Features[i]
		}
	}
	return nil
}

// HasRegisters returns true if the description advertises at least one
// register feature.
func (desc *Description) HasRegisters() bool {
	for i := range desc.Features {
		if len(desc.Features[i].Registers) > 0 {
			return true
		}
	}
	return false
}

// Register returns the register with the given name, or nil.
func (f *Feature) Register(name string) *Register {
	for i := range f.Registers {
		if f.Registers[i].Name == name {
			return &f.Registers[i]
		}
	}
	return nil
}
