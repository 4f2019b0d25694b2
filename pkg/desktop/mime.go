package desktop

import (
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-hclog"
)

// SharedMimeInfoNS is the XML namespace of shared-mime-info package files.
const SharedMimeInfoNS = "http://www.freedesktop.org/standards/shared-mime-info"

var simpleGlobRe = regexp.MustCompile(`^\*\.([a-zA-Z0-9]+)$`)

// ExtInfo is a file name extension (no dot) and its type description.
type ExtInfo struct {
	Ext         string
	Description string
}

// Extensions reads share/mime/packages/*.xml below prefix and returns the
// extensions for mimeTypes. Primary extensions belong to the declared
// types; secondary ones to types that are a sub-class of a declared type.
// Only simple "*.ext" globs are used. Unreadable files are logged and
// skipped.
func Extensions(prefix string, mimeTypes []string, logger hclog.Logger) (primary, secondary []ExtInfo) {
	if len(mimeTypes) == 0 {
		return nil, nil
	}

	files, _ := filepath.Glob(filepath.Join(prefix, "share", "mime", "packages", "*.xml"))
	for _, file := range files {
		doc := etree.NewDocument()
		if err := doc.ReadFromFile(file); err != nil {
			logger.Warn("⚠️ cannot read shared-mime-info file", "file", file, "error", err)
			continue
		}
		root := doc.Root()
		if root == nil || root.NamespaceURI() != SharedMimeInfoNS {
			continue
		}

		for _, t := range root.SelectElements("mime-type") {
			typ := t.SelectAttrValue("type", "")
			var target *[]ExtInfo
			switch {
			case slices.Contains(mimeTypes, typ):
				target = &primary
			case subclassOfAny(t, mimeTypes):
				target = &secondary
			default:
				continue
			}

			desc := description(t, typ)
			for _, g := range t.SelectElements("glob") {
				m := simpleGlobRe.FindStringSubmatch(g.SelectAttrValue("pattern", ""))
				if m == nil {
					continue
				}
				if !containsExt(*target, m[1]) {
					*target = append(*target, ExtInfo{Ext: m[1], Description: desc})
				}
			}
		}
	}

	logger.Debug("extensions resolved", "primary", len(primary), "secondary", len(secondary))
	return primary, secondary
}

func subclassOfAny(t *etree.Element, mimeTypes []string) bool {
	for _, sc := range t.FindElements(".//sub-class-of") {
		if slices.Contains(mimeTypes, sc.SelectAttrValue("type", "")) {
			return true
		}
	}
	return false
}

// description returns the first comment without an xml:lang attribute.
func description(t *etree.Element, fallback string) string {
	for _, c := range t.SelectElements("comment") {
		if c.SelectAttr("xml:lang") == nil {
			return strings.TrimSpace(c.Text())
		}
	}
	return fallback
}

func containsExt(infos []ExtInfo, ext string) bool {
	for _, info := range infos {
		if info.Ext == ext {
			return true
		}
	}
	return false
}
