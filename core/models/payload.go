package models

import (
	"fmt"
	"strings"
)

// Encoding is how archive bytes are turned into payload text
type Encoding int

const (
	Compressed Encoding = iota
	Uncompressed
)

func (e Encoding) String() string {
	switch e {
	case Compressed:
		return "compressed"
	case Uncompressed:
		return "uncompressed"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding accepts "compressed" or "uncompressed"
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compressed", "":
		return Compressed, nil
	case "uncompressed":
		return Uncompressed, nil
	default:
		return 0, fmt.Errorf("unknown compression %q: must be 'compressed' or 'uncompressed'", s)
	}
}

// ArchiveMode is how collected sources are serialized
type ArchiveMode int

const (
	// Flat serializes a name to source table
	Flat ArchiveMode = iota
	// Container zips every file under the root, assets included
	Container
)

func (m ArchiveMode) String() string {
	switch m {
	case Flat:
		return "flat"
	case Container:
		return "container"
	default:
		return fmt.Sprintf("ArchiveMode(%d)", int(m))
	}
}

// ParseArchiveMode accepts "flat" or "container"
func ParseArchiveMode(s string) (ArchiveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flat", "":
		return Flat, nil
	case "container", "zip":
		return Container, nil
	default:
		return 0, fmt.Errorf("unknown mode %q: must be 'flat' or 'container'", s)
	}
}

// Payload is the printable form of the archive embedded in the bootstrap
type Payload struct {
	Encoding Encoding
	Text     string
}
