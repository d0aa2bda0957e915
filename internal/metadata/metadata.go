// Package metadata holds the descriptive fields written into ComicInfo.xml and
// the precedence rules used to build them: per-item overrides win over batch
// overrides, which win over values computed from the source.
package metadata

import "strings"

type YesNo string

const (
	YesNoUnknown YesNo = "Unknown"
	No           YesNo = "No"
	Yes          YesNo = "Yes"
)

// Manga doubles as the reading-direction tag.
type Manga string

const (
	MangaUnknown           Manga = "Unknown"
	MangaNo                Manga = "No"
	MangaYes               Manga = "Yes"
	MangaYesAndRightToLeft Manga = "YesAndRightToLeft"
)

type AgeRating string

const (
	AgeRatingUnknown       AgeRating = "Unknown"
	AgeRatingAdultsOnly    AgeRating = "Adults Only 18+"
	AgeRatingEarlyChild    AgeRating = "Early Childhood"
	AgeRatingEveryone      AgeRating = "Everyone"
	AgeRatingEveryone10    AgeRating = "Everyone 10+"
	AgeRatingG             AgeRating = "G"
	AgeRatingKidsToAdults  AgeRating = "Kids to Adults"
	AgeRatingM             AgeRating = "M"
	AgeRatingMA15          AgeRating = "MA15+"
	AgeRatingMature17      AgeRating = "Mature 17+"
	AgeRatingPG            AgeRating = "PG"
	AgeRatingR18           AgeRating = "R18+"
	AgeRatingPending       AgeRating = "Rating Pending"
	AgeRatingTeen          AgeRating = "Teen"
	AgeRatingX18           AgeRating = "X18+"
)

var ageRatings = []AgeRating{
	AgeRatingUnknown, AgeRatingAdultsOnly, AgeRatingEarlyChild, AgeRatingEveryone,
	AgeRatingEveryone10, AgeRatingG, AgeRatingKidsToAdults, AgeRatingM, AgeRatingMA15,
	AgeRatingMature17, AgeRatingPG, AgeRatingR18, AgeRatingPending, AgeRatingTeen,
	AgeRatingX18,
}

const FormatWebComic = "Web Comic"

// ComicMetadata is the resolved metadata for one comic. Zero-valued optional
// fields are omitted from the descriptor.
type ComicMetadata struct {
	Title         string
	Series        string
	Number        *int
	LanguageISO   string
	Format        string
	BlackAndWhite YesNo
	Manga         Manga
	AgeRating     AgeRating

	Summary   string
	Writer    string
	Publisher string
	Genre     string
	Web       string
	Year      int
	Volume    int

	// Extra carries override keys with no ComicInfo field.
	Extra map[string]string
}

// Defaults computes the metadata a source gets when nobody overrides anything.
// name is the directory name or archive stem.
func Defaults(name, languageISO string) ComicMetadata {
	one := 1
	return ComicMetadata{
		Title:         name,
		Series:        name,
		Number:        &one,
		LanguageISO:   languageISO,
		Format:        FormatWebComic,
		BlackAndWhite: No,
		Manga:         MangaYes,
		AgeRating:     AgeRatingPending,
	}
}

// Overrides is a sparse set of metadata fields. Nil fields leave the
// underlying value alone.
type Overrides struct {
	Title     *string
	Series    *string
	Number    *int
	Language  *string
	Format    *string
	Summary   *string
	Writer    *string
	Publisher *string
	Genre     *string
	Web       *string
	Year      *int
	Volume    *int

	BlackAndWhite *YesNo
	Manga         *Manga
	AgeRating     *AgeRating

	Extra map[string]string
}

func (o Overrides) IsZero() bool {
	return o.Title == nil && o.Series == nil && o.Number == nil && o.Language == nil &&
		o.Format == nil && o.Summary == nil && o.Writer == nil && o.Publisher == nil &&
		o.Genre == nil && o.Web == nil && o.Year == nil && o.Volume == nil &&
		o.BlackAndWhite == nil && o.Manga == nil && o.AgeRating == nil && len(o.Extra) == 0
}

// Apply returns m with every field set in o replaced. m is not modified.
func (o Overrides) Apply(m ComicMetadata) ComicMetadata {
	setString(&m.Title, o.Title)
	setString(&m.Series, o.Series)
	setString(&m.LanguageISO, o.Language)
	setString(&m.Format, o.Format)
	setString(&m.Summary, o.Summary)
	setString(&m.Writer, o.Writer)
	setString(&m.Publisher, o.Publisher)
	setString(&m.Genre, o.Genre)
	setString(&m.Web, o.Web)
	if o.Number != nil {
		n := *o.Number
		m.Number = &n
	}
	if o.Year != nil {
		m.Year = *o.Year
	}
	if o.Volume != nil {
		m.Volume = *o.Volume
	}
	if o.BlackAndWhite != nil {
		m.BlackAndWhite = *o.BlackAndWhite
	}
	if o.Manga != nil {
		m.Manga = *o.Manga
	}
	if o.AgeRating != nil {
		m.AgeRating = *o.AgeRating
	}

	if len(m.Extra) > 0 || len(o.Extra) > 0 {
		extra := make(map[string]string, len(m.Extra)+len(o.Extra))
		for k, v := range m.Extra {
			extra[k] = v
		}
		for k, v := range o.Extra {
			extra[k] = v
		}
		m.Extra = extra
	}
	return m
}

// Resolve merges in precedence order: perItem > batch > defaults.
func Resolve(defaults ComicMetadata, batch, perItem Overrides) ComicMetadata {
	return perItem.Apply(batch.Apply(defaults))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// ParseYesNo accepts yes/no/unknown and common boolean spellings.
func ParseYesNo(s string) (YesNo, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return Yes, true
	case "no", "n", "false", "0":
		return No, true
	case "unknown":
		return YesNoUnknown, true
	default:
		return "", false
	}
}

// ParseManga accepts the ComicInfo values plus "rtl" for right-to-left.
func ParseManga(s string) (Manga, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return MangaYes, true
	case "no", "n", "false", "0":
		return MangaNo, true
	case "yesandrighttoleft", "rtl":
		return MangaYesAndRightToLeft, true
	case "unknown":
		return MangaUnknown, true
	default:
		return "", false
	}
}

func ParseAgeRating(s string) (AgeRating, bool) {
	s = strings.TrimSpace(s)
	for _, r := range ageRatings {
		if strings.EqualFold(string(r), s) {
			return r, true
		}
	}
	if strings.EqualFold(s, "pending") {
		return AgeRatingPending, true
	}
	return "", false
}
