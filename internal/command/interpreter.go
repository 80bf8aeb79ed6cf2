package command

import (
	"strings"

	"git.lost.host/meutraa/recut/internal/diag"
	"git.lost.host/meutraa/recut/internal/edit"
	"git.lost.host/meutraa/recut/internal/errs"
)

const stage = "command"

// Interpreter turns free text into edit actions over the available
// section names, which are given in timeline order.
type Interpreter interface {
	Interpret(text string, available []string) (edit.Actions, error)
}

type verb int

const (
	none verb = iota
	remove
	keep
)

var verbs = map[string]verb{
	"remove":   remove,
	"cut":      remove,
	"delete":   remove,
	"drop":     remove,
	"skip":     remove,
	"keep":     keep,
	"retain":   keep,
	"preserve": keep,
}

var rest = []string{"everything else", "the rest", "all the rest", "all others", "all other sections", "anything else"}

var fillers = []string{"only ", "just ", "the ", "sections ", "section "}

// KeywordInterpreter understands commands like
// "remove Intro and Verse 2, keep Chorus" or
// "keep from Verse 1 to Chorus 1, remove everything else".
type KeywordInterpreter struct {
	Diag *diag.Collector
}

type clause struct {
	verb  verb
	words []string
}

func verbOf(word string) verb {
	return verbs[strings.ToLower(strings.Trim(word, ",:"))]
}

var ignorable = map[string]bool{"and": true, "then": true, "also": true, "please": true, "": true}

func trimIgnorable(words []string) []string {
	for len(words) > 0 && ignorable[strings.ToLower(strings.Trim(words[0], ","))] {
		words = words[1:]
	}
	for len(words) > 0 && ignorable[strings.ToLower(strings.Trim(words[len(words)-1], ","))] {
		words = words[:len(words)-1]
	}
	return words
}

// separates reports whether a verb may start after prev, the word before
// it. A verb anywhere else is part of a section name, as in "Drop 2".
func separates(prev string) bool {
	return prev == "" || strings.HasSuffix(prev, ",") || strings.HasSuffix(prev, ":") ||
		ignorable[strings.ToLower(prev)]
}

// startsName reports whether words begin with one of the available names.
func startsName(words []string, available []string) bool {
	for _, name := range available {
		n := len(strings.Fields(name))
		if n == 0 || n > len(words) {
			continue
		}
		if normalise(strings.Trim(strings.Join(words[:n], " "), ",:")) == normalise(name) {
			return true
		}
	}
	return false
}

// clauses splits on sentence punctuation and again before every verb that
// opens a clause. Past the first word a verb that starts a section name
// belongs to the name.
func clauses(text string, available []string) []clause {
	out := []clause{}
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == ';' || r == '\n' }) {
		current := -1
		words := strings.Fields(sentence)
		for i, w := range words {
			opens := i == 0 || (separates(words[i-1]) && !startsName(words[i:], available))
			if v := verbOf(w); v != none && opens {
				out = append(out, clause{verb: v})
				current = len(out) - 1
				continue
			}
			if current < 0 {
				out = append(out, clause{})
				current = len(out) - 1
			}
			out[current].words = append(out[current].words, w)
		}
	}
	trimmed := []clause{}
	for _, c := range out {
		c.words = trimIgnorable(c.words)
		if c.verb == none && len(c.words) == 0 {
			continue
		}
		trimmed = append(trimmed, c)
	}
	return trimmed
}

func stripFillers(s string) string {
	for {
		lower := strings.ToLower(s)
		stripped := false
		for _, f := range fillers {
			if strings.HasPrefix(lower, f) {
				s = strings.TrimSpace(s[len(f):])
				stripped = true
				break
			}
		}
		if !stripped {
			return s
		}
	}
}

func isRest(s string) bool {
	lower := strings.ToLower(strings.Trim(strings.TrimSpace(s), ","))
	for _, r := range rest {
		if lower == r {
			return true
		}
	}
	return false
}

// splitNames splits a list on commas and the word "and".
func splitNames(s string) []string {
	names := []string{}
	for _, part := range strings.Split(s, ",") {
		words := strings.Fields(part)
		current := []string{}
		for _, w := range words {
			if strings.EqualFold(w, "and") {
				if len(current) > 0 {
					names = append(names, strings.Join(current, " "))
				}
				current = current[:0]
				continue
			}
			current = append(current, w)
		}
		if len(current) > 0 {
			names = append(names, strings.Join(current, " "))
		}
	}
	return names
}

// expandRange resolves "from X to Y" into every section between them.
func expandRange(s string, available []string) ([]string, bool, error) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "from ") {
		return nil, false, nil
	}
	i := strings.Index(lower, " to ")
	if i < 0 {
		return nil, true, errs.New(errs.InvalidCommand, "range %q has no end, use from <section> to <section>", s)
	}
	first, err := Canonicalize([]string{strings.TrimSpace(s[len("from "):i])}, available)
	if nil != err {
		return nil, true, err
	}
	last, err := Canonicalize([]string{strings.TrimSpace(s[i+len(" to "):])}, available)
	if nil != err {
		return nil, true, err
	}
	from, to := indexOf(available, first[0]), indexOf(available, last[0])
	if from > to {
		from, to = to, from
	}
	out := make([]string, to-from+1)
	copy(out, available[from:to+1])
	return out, true, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func appendUnique(list []string, names ...string) []string {
	for _, n := range names {
		if indexOf(list, n) < 0 {
			list = append(list, n)
		}
	}
	return list
}

func (k *KeywordInterpreter) Interpret(text string, available []string) (edit.Actions, error) {
	var actions edit.Actions
	if strings.TrimSpace(text) == "" {
		return actions, errs.New(errs.InvalidCommand, "empty command")
	}
	if len(available) == 0 {
		return actions, errs.New(errs.InvalidCommand, "there are no sections to edit")
	}

	removeRest, keepRest := false, false
	for _, c := range clauses(text, available) {
		if c.verb == none {
			return edit.Actions{}, errs.New(errs.InvalidCommand, "%q does not start with remove or keep", strings.Join(c.words, " "))
		}
		raw := strings.Trim(strings.Join(c.words, " "), ", ")
		body := stripFillers(raw)
		if body == "" {
			return edit.Actions{}, errs.New(errs.InvalidCommand, "no sections named in %q", text)
		}

		if isRest(raw) {
			if c.verb == remove {
				removeRest = true
			} else {
				keepRest = true
			}
			continue
		}
		names, ranged, err := expandRange(body, available)
		if nil != err {
			return edit.Actions{}, err
		}
		if !ranged {
			names, err = Canonicalize(splitNames(body), available)
			if nil != err {
				return edit.Actions{}, err
			}
		}
		if c.verb == remove {
			actions.Remove = appendUnique(actions.Remove, names...)
		} else {
			actions.Keep = appendUnique(actions.Keep, names...)
		}
	}

	if removeRest && keepRest {
		return edit.Actions{}, errs.New(errs.InvalidCommand, "cannot both keep and remove everything else")
	}
	if removeRest {
		if len(actions.Keep) == 0 {
			return edit.Actions{}, errs.New(errs.InvalidCommand, "remove everything else needs sections to keep")
		}
		// Keep wins, so the explicit removes are implied by keep only.
		actions.Remove = nil
	}
	if keepRest && len(actions.Remove) == 0 {
		return edit.Actions{}, errs.New(errs.InvalidCommand, "keep everything else needs sections to remove")
	}
	if actions.IsEmpty() {
		return actions, errs.New(errs.InvalidCommand, "no remove or keep action in %q", text)
	}

	k.Diag.Debugf(stage, "remove %v keep %v", actions.Remove, actions.Keep)
	return actions, nil
}

func normalise(name string) string {
	r := strings.NewReplacer("_", "", " ", "", "-", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(name)))
}

// Canonicalize maps names onto available ignoring case, spaces and
// underscores. Unknown names fail together with SectionNotFound.
func Canonicalize(names, available []string) ([]string, error) {
	canonical := make(map[string]string, len(available))
	for _, a := range available {
		if _, ok := canonical[normalise(a)]; !ok {
			canonical[normalise(a)] = a
		}
	}
	out := make([]string, 0, len(names))
	missing := []string{}
	for _, n := range names {
		c, ok := canonical[normalise(n)]
		if !ok {
			missing = append(missing, n)
			continue
		}
		out = appendUnique(out, c)
	}
	if len(missing) > 0 {
		return nil, errs.New(errs.SectionNotFound, "unknown sections %s, available are %s",
			strings.Join(missing, ", "), strings.Join(available, ", "))
	}
	return out, nil
}
