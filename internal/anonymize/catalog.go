package anonymize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Detector names, in evaluation order.
const (
	DetectorLabelledSecret = "labelled_secret"
	DetectorInlineSecret   = "inline_secret"
	DetectorIPv4           = "ipv4"
	DetectorEmail          = "email"
	DetectorPhone          = "phone"
	DetectorURL            = "url"
	DetectorJWT            = "jwt"
	DetectorAWSKey         = "aws_access_key"
	DetectorGoogleKey      = "google_api_key"
	DetectorSlackToken     = "slack_token"
	DetectorGitHubToken    = "github_token"
	DetectorStripeKey      = "stripe_key"
	DetectorPassword       = "complex_password"
	DetectorToken          = "token"
)

// DetectorSpec describes one step of the detector chain before compilation.
type DetectorSpec struct {
	Name    string
	Pattern string
	// Accept filters candidate matches. Nil accepts every match.
	Accept func(candidate string) bool
	// Bounded rejects matches that touch a letter, digit or underscore on either side.
	Bounded bool
}

// Detector is a compiled DetectorSpec.
type Detector struct {
	name    string
	re      *regexp.Regexp
	accept  func(string) bool
	bounded bool
}

// Name returns the detector name used in logs and metrics.
func (d *Detector) Name() string { return d.name }

// DefaultSpecs returns the built-in detector chain.
// Specific shapes come first so that broad heuristics only see what is left.
func DefaultSpecs() []DetectorSpec {
	return []DetectorSpec{
		{
			Name:    DetectorLabelledSecret,
			Pattern: `(?i)(password|passwd|pwd|token|key|secret|api_key|credential)\s*[:=]\s*\S+`,
		},
		{Name: DetectorInlineSecret, Pattern: `(?i)(password|token|key|secret|pwd)\s+\S+`},
		{Name: DetectorIPv4, Pattern: `\b\d{1,3}(?:\.\d{1,3}){3}\b`},
		{Name: DetectorEmail, Pattern: `[\w.\-]+@[\w.\-]+\.\w+`},
		{
			Name:    DetectorPhone,
			Pattern: `(?:\+?\d{1,3}[\s.-]?)?(?:1[3-9]\d{9}|\(?\d{2,4}\)?[\s.-]?\d{3,4}[\s.-]?\d{4})`,
			Bounded: true,
		},
		{Name: DetectorURL, Pattern: `https?://\S+`},
		{Name: DetectorJWT, Pattern: `\beyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\b`},
		{Name: DetectorAWSKey, Pattern: `\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`},
		{Name: DetectorGoogleKey, Pattern: `\bAIza[0-9A-Za-z_-]{35}\b`},
		{Name: DetectorSlackToken, Pattern: `\bxox[baprs]-[A-Za-z0-9-]{10,}\b`},
		{Name: DetectorGitHubToken, Pattern: `\bgh[opsu]_[A-Za-z0-9]{36,}\b`},
		{Name: DetectorStripeKey, Pattern: `\bsk_(?:live|test)_[0-9a-zA-Z]{24,}\b`},
		{
			Name:    DetectorPassword,
			Pattern: "[A-Za-z0-9!@#$%^&*()_+=\\-\\[\\]{}|:;,.?/~`]{8,}",
			Accept:  looksLikeComplexPassword,
		},
		{
			Name:    DetectorToken,
			Pattern: `[A-Za-z0-9_+/=\-]{16,}`,
			Accept:  looksLikeToken,
		},
	}
}

// Compile builds detectors from specs. A spec whose pattern does not compile
// is logged and left out of the chain.
func Compile(specs []DetectorSpec, logger *zap.Logger) []Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := make([]Detector, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			logger.Warn("Skipping detector with invalid pattern",
				zap.String("detector", s.Name),
				zap.Error(err),
			)
			continue
		}
		out = append(out, Detector{name: s.Name, re: re, accept: s.Accept, bounded: s.Bounded})
	}
	return out
}

// find returns the [start, end) offsets of every match in text.
func (d *Detector) find(text string) [][]int {
	if !d.bounded {
		return d.re.FindAllStringIndex(text, -1)
	}

	var out [][]int
	pos := 0
	for pos <= len(text) {
		loc := d.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start == end {
			pos = end + 1
			continue
		}
		if wordBefore(text, start) || wordAfter(text, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}
		out = append(out, []int{start, end})
		pos = end
	}
	return out
}

// accepts reports whether a match should be treated as sensitive.
// A panicking predicate counts as a rejection.
func (d *Detector) accepts(candidate string) (ok bool) {
	if d.accept == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return d.accept(candidate)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return isWordRune(r)
}

func wordAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return isWordRune(r)
}

var (
	placeholderRe     = regexp.MustCompile(`^ANON_[0-9a-f]{8}$`)
	placeholderSpanRe = regexp.MustCompile(`ANON_[0-9a-f]{8}`)
	hexTokenRe        = regexp.MustCompile(`^[a-fA-F0-9]{32,}$`)
	base64TokenRe     = regexp.MustCompile(`^[A-Za-z0-9+/]{24,}={0,2}$`)
	strongSymbolRe    = regexp.MustCompile("[!@#$%^&*()+=\\[\\]{}|:;,.?/~`]")
)

// IsPlaceholder reports whether s is exactly one placeholder token.
func IsPlaceholder(s string) bool {
	return placeholderRe.MatchString(s)
}

func charGroups(s string) int {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	n := 0
	for _, b := range []bool{lower, upper, digit, other} {
		if b {
			n++
		}
	}
	return n
}

func looksLikeComplexPassword(s string) bool {
	if len(s) < 8 || IsPlaceholder(s) {
		return false
	}
	groups := charGroups(s)
	if groups >= 4 {
		return true
	}
	return groups >= 3 && strongSymbolRe.MatchString(s)
}

func looksLikeToken(s string) bool {
	if IsPlaceholder(s) {
		return false
	}
	if hexTokenRe.MatchString(s) || base64TokenRe.MatchString(s) {
		return true
	}
	if len(s) < 20 {
		return false
	}
	hasLetter := strings.IndexFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
	if !hasLetter {
		return false
	}
	return strings.ContainsAny(s, "0123456789+/=_-")
}
