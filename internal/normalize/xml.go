package normalize

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/korean"
)

// RecordParser turns an XML body into raw records.
type RecordParser interface {
	Parse(body []byte) ([]Record, error)
}

// DefaultRowTags are the repeating elements of the open-data XML feeds.
var DefaultRowTags = []string{"row", "item"}

// NewXMLParser returns the parser used for XML feeds: a streaming decoder
// that falls back to tag scanning when the document is not well formed.
func NewXMLParser(tags ...string) RecordParser {
	if len(tags) == 0 {
		tags = DefaultRowTags
	}
	return &StreamParser{Tags: tags, Fallback: &TagScanParser{Tags: tags}}
}

// StreamParser decodes records with encoding/xml in non-strict mode.
type StreamParser struct {
	Tags     []string
	Fallback RecordParser
}

type frame struct {
	name     string
	text     strings.Builder
	hasChild bool
}

func (p *StreamParser) Parse(body []byte) ([]Record, error) {
	recs, err := p.decode(body)
	if err != nil || (len(recs) == 0 && p.mentionsTag(body)) {
		if p.Fallback != nil {
			return p.Fallback.Parse(body)
		}
		if err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (p *StreamParser) mentionsTag(body []byte) bool {
	for _, tag := range p.Tags {
		if indexOpenTag(string(body), tag, 0) >= 0 {
			return true
		}
	}
	return false
}

func (p *StreamParser) decode(body []byte) ([]Record, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	dec.CharsetReader = charsetReader

	var (
		recs    []Record
		current Record
		root    string
		stack   []*frame
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if current == nil {
				if p.isRowTag(t.Name.Local) {
					current = Record{}
					root = t.Name.Local
					stack = stack[:0]
				}
				continue
			}
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, &frame{name: t.Name.Local})
		case xml.CharData:
			if current != nil && len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			if current == nil {
				continue
			}
			if len(stack) == 0 {
				if t.Name.Local == root {
					recs = append(recs, current)
					current = nil
				}
				continue
			}
			top := stack[len(stack)-1]
			if !top.hasChild {
				names := make([]string, len(stack))
				for i, f := range stack {
					names[i] = f.name
				}
				setLeaf(current, strings.Join(names, "."), top.text.String())
			}
			stack = stack[:len(stack)-1]
		}
	}
	return recs, nil
}

func (p *StreamParser) isRowTag(name string) bool {
	for _, tag := range p.Tags {
		if name == tag {
			return true
		}
	}
	return false
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "euc-kr", "ks_c_5601-1987", "cp949", "uhc":
		return korean.EUCKR.NewDecoder().Reader(input), nil
	case "utf-8", "utf8", "":
		return input, nil
	}
	return nil, errors.New("unsupported charset " + label)
}

// TagScanParser extracts records by scanning for repeating row elements.
// It has no notion of document structure, so it survives truncated bodies
// and rows whose closing tag is missing.
type TagScanParser struct {
	Tags []string
}

func (p *TagScanParser) Parse(body []byte) ([]Record, error) {
	s := string(body)
	for _, tag := range p.Tags {
		blocks := scanBlocks(s, tag)
		if len(blocks) == 0 {
			continue
		}
		recs := make([]Record, 0, len(blocks))
		for _, block := range blocks {
			rec := Record{}
			scanFields(rec, "", block)
			recs = append(recs, rec)
		}
		return recs, nil
	}
	return nil, nil
}

// LeafValue returns the text of the first <name> element in body.
func LeafValue(body []byte, name string) (string, bool) {
	s := string(body)
	blocks := scanBlocks(s, name)
	if len(blocks) == 0 {
		return "", false
	}
	return cleanText(blocks[0]), true
}

// Blocks returns the raw inner markup of every <name> element in body.
// A block whose closing tag is missing runs to the next <name> or the end.
func Blocks(body []byte, name string) []string {
	return scanBlocks(string(body), name)
}

// HasElement reports whether body contains an opening <name> tag.
func HasElement(body []byte, name string) bool {
	return indexOpenTag(string(body), name, 0) >= 0
}

// indexOpenTag finds "<tag" followed by '>', '/' or whitespace.
func indexOpenTag(s, tag string, from int) int {
	needle := "<" + tag
	for from < len(s) {
		i := strings.Index(s[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		next := i + len(needle)
		if next < len(s) {
			switch s[next] {
			case '>', '/', ' ', '\t', '\n', '\r':
				return i
			}
		}
		from = next
	}
	return -1
}

func scanBlocks(s, tag string) []string {
	var blocks []string
	closeTag := "</" + tag + ">"
	pos := 0
	for {
		start := indexOpenTag(s, tag, pos)
		if start < 0 {
			break
		}
		gt := strings.IndexByte(s[start:], '>')
		if gt < 0 {
			break
		}
		gt += start
		if s[gt-1] == '/' {
			blocks = append(blocks, "")
			pos = gt + 1
			continue
		}
		contentStart := gt + 1
		end := len(s)
		next := contentStart
		if ci := strings.Index(s[contentStart:], closeTag); ci >= 0 {
			end = contentStart + ci
			next = end + len(closeTag)
		}
		// a row whose closing tag is missing ends where the next row begins
		if ni := indexOpenTag(s, tag, contentStart); ni >= 0 && ni < end {
			end = ni
			next = ni
		}
		if next == contentStart && end == len(s) {
			next = len(s)
		}
		blocks = append(blocks, s[contentStart:end])
		pos = next
	}
	return blocks
}

func scanFields(rec Record, prefix, content string) {
	pos := 0
	for pos < len(content) {
		lt := strings.IndexByte(content[pos:], '<')
		if lt < 0 {
			return
		}
		lt += pos
		gt := strings.IndexByte(content[lt:], '>')
		if gt < 0 {
			return
		}
		gt += lt
		rest := content[lt+1:]
		if strings.HasPrefix(rest, "/") || strings.HasPrefix(rest, "?") || strings.HasPrefix(rest, "!") {
			pos = gt + 1
			continue
		}
		name := content[lt+1 : gt]
		if i := strings.IndexAny(name, " \t\r\n/"); i >= 0 {
			name = name[:i]
		}
		if content[gt-1] == '/' || name == "" {
			pos = gt + 1
			continue
		}

		key := prefix + name
		innerStart := gt + 1
		closeTag := "</" + name + ">"
		ci := strings.Index(content[innerStart:], closeTag)
		if ci < 0 {
			end := len(content)
			if nx := strings.IndexByte(content[innerStart:], '<'); nx >= 0 {
				end = innerStart + nx
			}
			setLeaf(rec, key, content[innerStart:end])
			pos = end
			continue
		}
		inner := content[innerStart : innerStart+ci]
		if isLeaf(inner) {
			setLeaf(rec, key, cleanText(inner))
		} else {
			scanFields(rec, key+".", inner)
		}
		pos = innerStart + ci + len(closeTag)
	}
}

func isLeaf(inner string) bool {
	trimmed := strings.TrimSpace(inner)
	return strings.HasPrefix(trimmed, "<![CDATA[") || !strings.Contains(trimmed, "<")
}

var entityReplacer = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<![CDATA[") && strings.HasSuffix(s, "]]>") {
		return strings.TrimSpace(s[len("<![CDATA[") : len(s)-len("]]>")])
	}
	return entityReplacer.Replace(s)
}

// setLeaf keeps the first non-blank value seen for a key.
func setLeaf(rec Record, key, value string) {
	value = strings.TrimSpace(value)
	if existing, ok := rec[key]; ok && existing != "" {
		return
	}
	rec[key] = value
}
