package musicxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/okian/chordscan/internal/domain/model"
)

const (
	maxEntryBytes = 64 << 20
	containerPath = "META-INF/container.xml"
)

var zipMagic = []byte("PK\x03\x04")

// Load reads a .musicxml/.xml file or a compressed .mxl container.
// Failures are classified as MalformedArtifact or ParseError.
func Load(filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, model.WrapKind(model.KindMalformedArtifact, "read artifact", err)
	}
	if strings.EqualFold(path.Ext(filePath), ".mxl") || bytes.HasPrefix(data, zipMagic) {
		data, err = unpack(data)
		if err != nil {
			return nil, model.WrapKind(model.KindMalformedArtifact, "open compressed score", err)
		}
	}
	return Parse(data)
}

// Parse parses MusicXML text.
func Parse(data []byte) (*Document, error) {
	tree := etree.NewDocument()
	if err := tree.ReadFromBytes(data); err != nil {
		return nil, model.WrapKind(model.KindParseError, "parse score", err)
	}
	doc, err := fromTree(tree)
	if err != nil {
		return nil, model.WrapKind(model.KindParseError, "parse score", err)
	}
	return doc, nil
}

// unpack returns the score inside an .mxl archive: the rootfile named by
// META-INF/container.xml, else the first xml entry outside META-INF.
func unpack(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	if c, ok := entries[containerPath]; ok {
		if raw, err := readEntry(c); err == nil {
			if name := rootfile(raw); name != "" {
				if f, ok := entries[name]; ok {
					return readEntry(f)
				}
			}
		}
	}

	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if strings.HasPrefix(name, "meta-inf/") || f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".xml") || strings.HasSuffix(name, ".musicxml") {
			return readEntry(f)
		}
	}
	return nil, ErrNoXMLEntry
}

func rootfile(container []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(container); err != nil {
		return ""
	}
	if rf := doc.FindElement("//rootfiles/rootfile"); rf != nil {
		return rf.SelectAttrValue("full-path", "")
	}
	return ""
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEntryBytes {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return data, nil
}
