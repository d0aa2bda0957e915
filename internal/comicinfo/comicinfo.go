// Package comicinfo writes and reads CBZ archives: zip files holding page
// images plus a ComicInfo.xml descriptor (ComicInfo v2 schema).
package comicinfo

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/MimeLyc/comic-packer/internal/metadata"
)

const FileName = "ComicInfo.xml"

// ComicInfo mirrors the ComicInfo v2 element order. Only the fields this tool
// fills are modeled.
type ComicInfo struct {
	XMLName xml.Name `xml:"ComicInfo"`
	XSI     string   `xml:"xmlns:xsi,attr,omitempty"`
	XSD     string   `xml:"xmlns:xsd,attr,omitempty"`

	Title         string `xml:"Title,omitempty"`
	Series        string `xml:"Series,omitempty"`
	Number        string `xml:"Number,omitempty"`
	Volume        int    `xml:"Volume,omitempty"`
	Summary       string `xml:"Summary,omitempty"`
	Notes         string `xml:"Notes,omitempty"`
	Year          int    `xml:"Year,omitempty"`
	Writer        string `xml:"Writer,omitempty"`
	Publisher     string `xml:"Publisher,omitempty"`
	Genre         string `xml:"Genre,omitempty"`
	Web           string `xml:"Web,omitempty"`
	PageCount     int    `xml:"PageCount,omitempty"`
	LanguageISO   string `xml:"LanguageISO,omitempty"`
	Format        string `xml:"Format,omitempty"`
	BlackAndWhite string `xml:"BlackAndWhite,omitempty"`
	Manga         string `xml:"Manga,omitempty"`
	AgeRating     string `xml:"AgeRating,omitempty"`
	Pages         *Pages `xml:"Pages,omitempty"`
}

type Pages struct {
	Page []PageInfo `xml:"Page"`
}

// PageInfo is a <Page> element. Image is the zero-based page index.
type PageInfo struct {
	Image       int    `xml:"Image,attr"`
	Type        string `xml:"Type,attr,omitempty"`
	ImageSize   int64  `xml:"ImageSize,attr,omitempty"`
	ImageWidth  int    `xml:"ImageWidth,attr,omitempty"`
	ImageHeight int    `xml:"ImageHeight,attr,omitempty"`
}

// FromMetadata builds the descriptor body; pages are attached by the encoder.
func FromMetadata(m metadata.ComicMetadata) ComicInfo {
	info := ComicInfo{
		XSI:           "http://www.w3.org/2001/XMLSchema-instance",
		XSD:           "http://www.w3.org/2001/XMLSchema",
		Title:         m.Title,
		Series:        m.Series,
		Volume:        m.Volume,
		Summary:       m.Summary,
		Year:          m.Year,
		Writer:        m.Writer,
		Publisher:     m.Publisher,
		Genre:         m.Genre,
		Web:           m.Web,
		LanguageISO:   m.LanguageISO,
		Format:        m.Format,
		BlackAndWhite: string(m.BlackAndWhite),
		Manga:         string(m.Manga),
		AgeRating:     string(m.AgeRating),
	}
	if m.Number != nil {
		info.Number = strconv.Itoa(*m.Number)
	}
	info.Notes = notes(m.Extra)
	return info
}

// notes renders override keys without a ComicInfo element as sorted
// "key=value" lines.
func notes(extra map[string]string) string {
	if len(extra) == 0 {
		return ""
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + extra[k]
	}
	return strings.Join(lines, "\n")
}

// Marshal renders the descriptor with an XML header.
func (c ComicInfo) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

func Unmarshal(data []byte) (ComicInfo, error) {
	var c ComicInfo
	err := xml.Unmarshal(data, &c)
	return c, err
}
