package archive

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/tristendillon/dashc/core/models"
)

// FileEntry describes one packaged module or asset
type FileEntry struct {
	Path    string `yaml:"path" json:"path"`
	Module  string `yaml:"module,omitempty" json:"module,omitempty"`
	Package bool   `yaml:"package,omitempty" json:"package,omitempty"`
	Size    int64  `yaml:"size" json:"size"`
	SHA256  string `yaml:"sha256" json:"sha256"`
}

// Manifest summarizes what a packaging run embedded
type Manifest struct {
	Mode         string      `yaml:"mode" json:"mode"`
	Encoding     string      `yaml:"encoding" json:"encoding"`
	Entry        string      `yaml:"entry" json:"entry"`
	EntryKind    string      `yaml:"entry_kind" json:"entryKind"`
	TotalFiles   int         `yaml:"total_files" json:"totalFiles"`
	Files        []FileEntry `yaml:"files" json:"files"`
	ArchiveBytes int         `yaml:"archive_bytes" json:"archiveBytes"`
	PayloadBytes int         `yaml:"payload_bytes" json:"payloadBytes"`
	CommandBytes int         `yaml:"command_bytes" json:"commandBytes"`
	// ContentHash is the sha256 of the concatenated per-file hashes
	ContentHash string `yaml:"content_hash" json:"contentHash"`
}

type ManifestBuilder struct {
	manifest Manifest
}

func NewManifestBuilder(mode models.ArchiveMode, encoding models.Encoding) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: Manifest{
			Mode:     mode.String(),
			Encoding: encoding.String(),
			Files:    []FileEntry{},
		},
	}
}

func (mb *ManifestBuilder) AddFile(entry FileEntry, data []byte) {
	hash := sha256.Sum256(data)
	entry.Size = int64(len(data))
	entry.SHA256 = hex.EncodeToString(hash[:])
	mb.manifest.Files = append(mb.manifest.Files, entry)
	mb.manifest.TotalFiles++
}

// AddCollection records every module, and in container mode every asset,
// in collection order
func (mb *ManifestBuilder) AddCollection(c *models.Collection) {
	if len(c.Members) == 0 {
		for _, u := range c.Table.Units() {
			mb.AddFile(FileEntry{Path: u.RelPath, Module: u.Name, Package: u.IsPackageRoot}, []byte(u.Text))
		}
		return
	}

	modules := make(map[string]models.SourceUnit, c.Table.Len())
	for _, u := range c.Table.Units() {
		modules[u.RelPath] = u
	}
	for _, m := range c.Members {
		entry := FileEntry{Path: m.Path}
		if u, ok := modules[m.Path]; ok {
			entry.Module = u.Name
			entry.Package = u.IsPackageRoot
		}
		mb.AddFile(entry, m.Data)
	}
}

func (mb *ManifestBuilder) SetEntry(entry models.EntryPoint) {
	mb.manifest.Entry = entry.String()
	mb.manifest.EntryKind = entry.Kind.String()
}

func (mb *ManifestBuilder) SetSizes(archiveBytes, payloadBytes, commandBytes int) {
	mb.manifest.ArchiveBytes = archiveBytes
	mb.manifest.PayloadBytes = payloadBytes
	mb.manifest.CommandBytes = commandBytes
}

func (mb *ManifestBuilder) Build() Manifest {
	hasher := sha256.New()
	for _, f := range mb.manifest.Files {
		hasher.Write([]byte(f.SHA256))
	}
	mb.manifest.ContentHash = hex.EncodeToString(hasher.Sum(nil))
	return mb.manifest
}
