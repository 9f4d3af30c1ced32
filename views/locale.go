package views

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Labels are the UI strings of one language.
type Labels struct {
	LoadMore     string
	Loading      string
	ExitPreview  string
	Minutes      string
	PreviousPost string
	NextPost     string
	NotFound     string
	NotFoundText string
	ServerError  string
	ServerText   string
	BackHome     string
}

type catalog struct {
	tag    language.Tag
	months [12]string
	edited string // fmt pattern: date, clock
	labels Labels
}

var catalogs = []catalog{
	{
		tag:    language.BrazilianPortuguese,
		months: [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
		edited: "* editado em %s, às %s",
		labels: Labels{
			LoadMore:     "Carregar mais posts",
			Loading:      "Carregando...",
			ExitPreview:  "Sair do modo Preview",
			Minutes:      "min",
			PreviousPost: "Post anterior",
			NextPost:     "Próximo post",
			NotFound:     "Página não encontrada",
			NotFoundText: "O post que você procura não existe ou foi removido.",
			ServerError:  "Algo deu errado",
			ServerText:   "Não foi possível carregar esta página. Tente novamente em instantes.",
			BackHome:     "Voltar para o início",
		},
	},
	{
		tag:    language.English,
		months: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		edited: "* edited on %s, at %s",
		labels: Labels{
			LoadMore:     "Load more posts",
			Loading:      "Loading...",
			ExitPreview:  "Exit preview mode",
			Minutes:      "min",
			PreviousPost: "Previous post",
			NextPost:     "Next post",
			NotFound:     "Page not found",
			NotFoundText: "The post you are looking for does not exist or was removed.",
			ServerError:  "Something went wrong",
			ServerText:   "This page could not be loaded. Please try again shortly.",
			BackHome:     "Back to home",
		},
	},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = c.tag
	}
	return language.NewMatcher(tags)
}()

// Locale formats dates and supplies UI labels.
type Locale struct {
	Lang   string
	Labels Labels
	c      *catalog
	loc    *time.Location
}

// NewLocale picks the closest supported language for tag (pt-BR when tag
// is empty or unparsable). Dates are shown in loc, or UTC when nil.
func NewLocale(tag string, loc *time.Location) Locale {
	want, err := language.Parse(tag)
	if err != nil || tag == "" {
		want = language.BrazilianPortuguese
	}
	_, idx, _ := matcher.Match(want)
	c := &catalogs[idx]
	if loc == nil {
		loc = time.UTC
	}
	return Locale{Lang: c.tag.String(), Labels: c.labels, c: c, loc: loc}
}

func (l Locale) catalog() *catalog {
	if l.c == nil {
		return &catalogs[0]
	}
	return l.c
}

func (l Locale) location() *time.Location {
	if l.loc == nil {
		return time.UTC
	}
	return l.loc
}

func (l Locale) day(t time.Time) string {
	t = t.In(l.location())
	return fmt.Sprintf("%02d %s %d", t.Day(), l.catalog().months[t.Month()-1], t.Year())
}

// Date formats t as "25 mar 2021". A nil t yields "".
func (l Locale) Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return l.day(*t)
}

// Edited formats t as "* editado em 25 mar 2021, às 19:25". A nil t yields "".
func (l Locale) Edited(t *time.Time) string {
	if t == nil {
		return ""
	}
	clock := t.In(l.location()).Format("15:04")
	return fmt.Sprintf(l.catalog().edited, l.day(*t), clock)
}
