package pubmed

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/lueurxax/nutrimatch/internal/core/domain"
)

// Defaults for fields absent from a record.
const (
	DefaultJournal = "Unknown Journal"
	DefaultAuthors = "Unknown"

	etAlSuffix = " et al."
)

var (
	recordPattern      = regexp.MustCompile(`(?s)<PubmedArticle(?:\s[^>]*)?>(.*?)</PubmedArticle>`)
	pmidPattern        = regexp.MustCompile(`<PMID[^>]*>\s*(\d+)\s*</PMID>`)
	titlePattern       = regexp.MustCompile(`(?s)<ArticleTitle[^>]*>(.*?)</ArticleTitle>`)
	journalPattern     = regexp.MustCompile(`(?s)<Journal>.*?<Title>(.*?)</Title>`)
	anyTitlePattern    = regexp.MustCompile(`(?s)<Title>(.*?)</Title>`)
	pubDatePattern     = regexp.MustCompile(`(?s)<PubDate>(.*?)</PubDate>`)
	yearPattern        = regexp.MustCompile(`<Year>\s*(\d{4})\s*</Year>`)
	medlineDatePattern = regexp.MustCompile(`<MedlineDate>\s*(\d{4})`)
	authorListPattern  = regexp.MustCompile(`(?s)<AuthorList[^>]*>(.*?)</AuthorList>`)
	lastNamePattern    = regexp.MustCompile(`(?s)<LastName>(.*?)</LastName>`)
	collectivePattern  = regexp.MustCompile(`(?s)<CollectiveName>(.*?)</CollectiveName>`)
	abstractPattern    = regexp.MustCompile(`(?s)<AbstractText[^>]*>(.*?)</AbstractText>`)
	pubTypePattern     = regexp.MustCompile(`(?s)<PublicationType[^>]*>(.*?)</PublicationType>`)
)

// Parse extracts candidate citations from an efetch XML payload. The
// payload is split into one block per record and every field is read from
// its own block. Records without an identifier or a title are skipped. A
// payload with no recognisable records yields an empty list.
func Parse(raw string) []domain.CandidateCitation {
	return parseAt(raw, time.Now())
}

func parseAt(raw string, now time.Time) []domain.CandidateCitation {
	blocks := recordPattern.FindAllStringSubmatch(raw, -1)
	out := make([]domain.CandidateCitation, 0, len(blocks))
	seen := make(map[string]struct{}, len(blocks))

	for _, block := range blocks {
		c, ok := parseRecord(block[1], now.Year())
		if !ok {
			continue
		}

		if _, dup := seen[c.PMID]; dup {
			continue
		}

		seen[c.PMID] = struct{}{}
		out = append(out, c)
	}

	return out
}

func parseRecord(block string, currentYear int) (domain.CandidateCitation, bool) {
	pmid := firstMatch(pmidPattern, block)
	title := cleanText(firstMatch(titlePattern, block))

	if pmid == "" || title == "" {
		return domain.CandidateCitation{}, false
	}

	abstract := parseAbstract(block)

	return domain.CandidateCitation{
		PMID:      pmid,
		Title:     title,
		Journal:   parseJournal(block),
		Year:      parseYear(block, currentYear),
		Authors:   parseAuthors(block),
		Abstract:  abstract,
		StudyType: ClassifyStudyType(parsePublicationTypes(block), title, abstract),
	}, true
}

func parseJournal(block string) string {
	journal := cleanText(firstMatch(journalPattern, block))
	if journal == "" {
		journal = cleanText(firstMatch(anyTitlePattern, block))
	}

	if journal == "" {
		return DefaultJournal
	}

	return journal
}

func parseYear(block string, currentYear int) int {
	pubDate := firstMatch(pubDatePattern, block)

	for _, p := range []*regexp.Regexp{yearPattern, medlineDatePattern} {
		if y := firstMatch(p, pubDate); y != "" {
			if year, err := strconv.Atoi(y); err == nil {
				return year
			}
		}
	}

	return currentYear
}

func parseAuthors(block string) string {
	list := firstMatch(authorListPattern, block)
	if list == "" {
		list = block
	}

	var names []string

	for _, m := range lastNamePattern.FindAllStringSubmatch(list, -1) {
		if name := cleanText(m[1]); name != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		if collective := cleanText(firstMatch(collectivePattern, list)); collective != "" {
			return collective
		}

		return DefaultAuthors
	}

	if len(names) > 1 {
		return names[0] + etAlSuffix
	}

	return names[0]
}

func parseAbstract(block string) string {
	sections := abstractPattern.FindAllStringSubmatch(block, -1)
	parts := make([]string, 0, len(sections))

	for _, s := range sections {
		if text := cleanText(s[1]); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}

func parsePublicationTypes(block string) []string {
	matches := pubTypePattern.FindAllStringSubmatch(block, -1)
	types := make([]string, 0, len(matches))

	for _, m := range matches {
		if t := cleanText(m[1]); t != "" {
			types = append(types, t)
		}
	}

	return types
}

func firstMatch(p *regexp.Regexp, s string) string {
	m := p.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}

	return m[1]
}

// cleanText drops embedded markup, decodes entities and collapses
// whitespace.
func cleanText(fragment string) string {
	if fragment == "" {
		return ""
	}

	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	z := html.NewTokenizer(strings.NewReader(fragment))

	var sb strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(sb.String()), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); blockLevelTag(string(name)) {
				sb.WriteByte(' ')
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

func blockLevelTag(name string) bool {
	switch name {
	case "br", "p", "div", "li", "ul", "ol", "table", "tr", "td", "th":
		return true
	default:
		return false
	}
}
