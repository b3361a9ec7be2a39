package compiler

// Explanation describes what a step does and which tools it drives.
type Explanation struct {
	summary  string
	detail   string
	tools    []string
	docLinks []string
}

// NewExplanation creates a new Explanation.
func NewExplanation(summary, detail string, docLinks []string) Explanation {
	links := make([]string, len(docLinks))
	copy(links, docLinks)
	return Explanation{
		summary:  summary,
		detail:   detail,
		docLinks: links,
	}
}

// Summary returns a brief description of what the step does.
func (e Explanation) Summary() string {
	return e.summary
}

// Detail returns a longer explanation with context.
func (e Explanation) Detail() string {
	return e.detail
}

// DocLinks returns links to relevant documentation.
func (e Explanation) DocLinks() []string {
	links := make([]string, len(e.docLinks))
	copy(links, e.docLinks)
	return links
}

// Tools returns the external tools the step invokes.
func (e Explanation) Tools() []string {
	tools := make([]string, len(e.tools))
	copy(tools, e.tools)
	return tools
}

// WithTools returns a new Explanation listing the tools the step drives.
func (e Explanation) WithTools(tools ...string) Explanation {
	next := e
	next.tools = make([]string, len(tools))
	copy(next.tools, tools)
	return next
}

// IsEmpty returns true if this explanation has no content.
func (e Explanation) IsEmpty() bool {
	return e.summary == "" && e.detail == ""
}
