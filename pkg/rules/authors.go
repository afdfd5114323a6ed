package rules

// AuthorAliases maps raw author names to canonical names.
type AuthorAliases struct {
	aliases map[string]string
}

// ParseAuthors reads lines of the form "raw name => canonical name".
// Lines without the separator are skipped; an empty side is an error.
func ParseAuthors(content string) (*AuthorAliases, error) {
	a := &AuthorAliases{aliases: make(map[string]string)}
	for i, line := range lines(content) {
		raw, canonical, ok := splitRule(line)
		if !ok {
			continue
		}
		if raw == "" || canonical == "" {
			return nil, &AliasError{Line: i + 1, Text: line}
		}
		a.aliases[raw] = canonical
	}
	return a, nil
}

// Len returns the number of aliases.
func (a *AuthorAliases) Len() int {
	if a == nil {
		return 0
	}
	return len(a.aliases)
}

// Normalize returns the canonical name of author, or author itself.
func (a *AuthorAliases) Normalize(author string) string {
	if a == nil {
		return author
	}
	if canonical, ok := a.aliases[author]; ok {
		return canonical
	}
	return author
}
