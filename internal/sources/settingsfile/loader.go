package settingsfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat means the file extension is not .yaml, .yml or .toml.
var ErrUnsupportedFormat = errors.New("unsupported settings file format")

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Document is a parsed settings file and the digest of its raw content.
type Document struct {
	File   File
	Digest uint64
}

// Loader reads a YAML or TOML settings file, picked by extension.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the file.
func (l *Loader) Load() (Document, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(filepath.Ext(l.filePath), data)
}

// Parse decodes data according to ext. {{NAME}} placeholders are replaced by
// the NAME environment variable before decoding.
func Parse(ext string, data []byte) (Document, error) {
	data = expandTemplateVariables(data)
	doc := Document{Digest: xxhash.Sum64(data)}

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc.File); err != nil && !errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("failed to parse settings yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &doc.File)
		if err != nil {
			return Document{}, fmt.Errorf("failed to parse settings toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Document{}, fmt.Errorf("failed to parse settings toml: unknown key %q", undecoded[0].String())
		}
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return doc, nil
}

// expandTemplateVariables substitutes {{NAME}} with the value of $NAME.
// Example: "locale: {{TABGUARD_LOCALE}}" -> "locale: ko"
func expandTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
