package service

import (
	"regexp"
	"strings"
)

// Image extraction from free-form model output. The reply may embed
// the result as a markdown link, a data URI, a plain URL or a bare
// base64 blob; matchers run in order and the first one that finds
// anything wins, so the most structured form always takes precedence.

type imageMatcher struct {
	name string
	find func(content string) []string
}

var (
	markdownImageRe = regexp.MustCompile(`!\[[^\]]*\]\(((?:data:image/[^;)]+;base64,|https?://)[^)]+)\)`)
	dataURIRe       = regexp.MustCompile(`(data:image/[^;]+;base64,[A-Za-z0-9+/=]+)`)
	imageExtURLRe   = regexp.MustCompile(`(?i)(https?://[^\s<>"{}|\\^` + "`" + `\[\]]+\.(?:png|jpg|jpeg|gif|webp|bmp|svg))`)
	bareBase64Re    = regexp.MustCompile(`(?m)^([A-Za-z0-9+/=]{100,})$`)
	anyHTTPSRe      = regexp.MustCompile(`(https://[^\s<>"{}|\\^` + "`" + `\[\]]+)`)
)

var imageMatchers = []imageMatcher{
	{
		name: "markdown image link",
		find: func(content string) []string {
			return submatches(markdownImageRe, content)
		},
	},
	{
		name: "data URI",
		find: func(content string) []string {
			return submatches(dataURIRe, content)
		},
	},
	{
		name: "image extension URL",
		find: func(content string) []string {
			return submatches(imageExtURLRe, content)
		},
	},
	{
		name: "bare base64",
		find: func(content string) []string {
			var out []string
			for _, m := range submatches(bareBase64Re, content) {
				out = append(out, "data:image/jpeg;base64,"+m)
			}
			return out
		},
	},
	{
		name: "any https URL",
		find: func(content string) []string {
			return submatches(anyHTTPSRe, content)
		},
	},
	{
		name: "whole reply",
		find: func(content string) []string {
			trimmed := strings.TrimSpace(content)
			if len(trimmed) >= 500 {
				return nil
			}
			if strings.HasPrefix(trimmed, "http") || strings.HasPrefix(trimmed, "data:image") {
				return []string{trimmed}
			}
			return nil
		},
	},
}

// ExtractImageURLs scans free-form model output for image references.
// Returns nil when no strategy finds anything.
func ExtractImageURLs(content string) []string {
	for _, m := range imageMatchers {
		if found := m.find(content); len(found) > 0 {
			return found
		}
	}
	return nil
}

func submatches(re *regexp.Regexp, content string) []string {
	var out []string
	for _, groups := range re.FindAllStringSubmatch(content, -1) {
		out = append(out, groups[1])
	}
	return out
}
